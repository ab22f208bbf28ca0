package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/urfave/cli/v3"
)

func TestWatchOptions_Debounce(t *testing.T) {
	tests := []struct {
		name string
		env  string
		args []string
		want time.Duration
	}{
		{name: "default", want: 500 * time.Millisecond},
		{name: "environment", env: "2s", want: 2 * time.Second},
		{name: "flag overrides environment", env: "2s", args: []string{"--debounce", "250ms"}, want: 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("WATCH_DEBOUNCE", tt.env)
			if tt.env == "" {
				os.Unsetenv("WATCH_DEBOUNCE")
			}

			var got time.Duration
			cmd := &cli.Command{
				Name:  "watch",
				Flags: watchFlags(),
				Action: func(_ context.Context, cmd *cli.Command) error {
					opts := watchOptions(cmd)
					if opts.Accept == nil {
						t.Error("watch options accept every file")
					}
					got = opts.Debounce
					return nil
				},
			}
			if err := cmd.Run(context.Background(), append([]string{"watch"}, tt.args...)); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got != tt.want {
				t.Errorf("debounce = %v, want %v", got, tt.want)
			}
		})
	}
}
