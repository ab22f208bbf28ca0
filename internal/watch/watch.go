// Package watch reports DMU documents dropped into an inbox directory.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler is called once per settled file with its absolute path.
type Handler func(path string)

// Options tune a watch.
type Options struct {
	// Debounce is how long a file must be quiet before it is handed over.
	// Word writes a .docx in several steps.
	Debounce time.Duration
	// Accept filters file names; nil accepts everything.
	Accept func(name string) bool
}

// Watch watches dir (not recursively) until ctx is cancelled. Created or
// written files that pass Accept are collected and handed to fn after
// Debounce of inactivity. Editor lock files and hidden files are ignored.
func Watch(ctx context.Context, dir string, opts Options, logger *slog.Logger, fn Handler) error {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	pending := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			timerCh = timer.C
		} else {
			timer.Reset(opts.Debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			for _, p := range paths {
				if info, statErr := os.Stat(p); statErr != nil || info.IsDir() {
					continue
				}
				logger.Debug("watcher: settled", slog.String("path", p))
				fn(p)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if ignored(name) || (opts.Accept != nil && !opts.Accept(name)) {
				continue
			}
			abs, absErr := filepath.Abs(ev.Name)
			if absErr != nil {
				abs = ev.Name
			}
			pending[abs] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}
