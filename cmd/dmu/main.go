// Command dmu builds hierarchy keys for Description of Map Units documents
// and keeps the DMU table offline, without the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dgallion1/dmukit/internal/dmu"
	"github.com/dgallion1/dmukit/internal/export"
	"github.com/dgallion1/dmukit/internal/parser"
	"github.com/dgallion1/dmukit/internal/pipeline"
	"github.com/dgallion1/dmukit/internal/store"
	"github.com/dgallion1/dmukit/internal/style"
	"github.com/dgallion1/dmukit/internal/watch"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "dmu",
		Usage: "Build hierarchy keys for Description of Map Units documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "db",
				Usage:   "Path to the DMU table database",
				Value:   "dmu.db",
				Sources: cli.EnvVars("DMU_DB_PATH"),
			},
			&cli.StringFlag{
				Name:    "styles",
				Usage:   "YAML file with extra paragraph style tags",
				Sources: cli.EnvVars("DMU_STYLE_TABLE"),
			},
			&cli.StringFlag{
				Name:    "prefix",
				Usage:   "Only .docx/.html paragraphs whose style starts with this prefix are read",
				Value:   "DMU",
				Sources: cli.EnvVars("DMU_STYLE_PREFIX"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log debug output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "keys",
				Usage:     "Print the label and hierarchy key of every entry in a document",
				ArgsUsage: "<src>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print records as JSON"},
				},
				Action: runKeys,
			},
			{
				Name:      "import",
				Usage:     "Build keys for documents and merge them into the table",
				ArgsUsage: "<src>...",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Import even if unchanged since the last import"},
				},
				Action: runImport,
			},
			{
				Name:      "export",
				Usage:     "Write the table as .docx, .md or .html",
				ArgsUsage: "<out>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "Document title"},
				},
				Action: runExport,
			},
			{
				Name:      "watch",
				Usage:     "Import documents as they are written into a directory",
				ArgsUsage: "<dir>",
				Flags:     watchFlags(),
				Action:    runWatch,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("dmu failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}

func buildFile(path string, prefix string, styles dmu.Classifier) ([]dmu.Record, error) {
	p, err := parser.ForFile(path, parser.Options{StylePrefix: prefix})
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return dmu.Build(doc.Paragraphs, styles)
}

func runKeys(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("keys: expected one source file")
	}
	styles, err := style.LoadTable(cmd.String("styles"))
	if err != nil {
		return err
	}
	records, err := buildFile(cmd.Args().First(), cmd.String("prefix"), styles)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PARAGRAPH\tKEY\tLABEL\tHEADING\tSTYLE")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Index, r.Key, r.Label, dmu.Heading(r), r.Style)
	}
	return tw.Flush()
}

// openTable opens the database and the style table named by the global
// flags.
func openTable(cmd *cli.Command) (*store.DB, *style.Table, error) {
	styles, err := style.LoadTable(cmd.String("styles"))
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(cmd.String("db"))
	if err != nil {
		return nil, nil, err
	}
	return db, styles, nil
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() == 0 {
		return fmt.Errorf("import: expected at least one source file")
	}
	log := logger(cmd)
	db, styles, err := openTable(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	w := pipeline.NewWorker(db, styles, parser.Options{StylePrefix: cmd.String("prefix")}, log, nil)
	var failed int
	for _, path := range cmd.Args().Slice() {
		if !importFile(ctx, w, log, path, cmd.Bool("force")) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, cmd.Args().Len())
	}
	return nil
}

// importFile runs one document through the worker and reports whether it
// did not fail.
func importFile(ctx context.Context, w *pipeline.Worker, log *slog.Logger, path string, force bool) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("read source", "path", path, "error", err)
		return false
	}
	job := pipeline.NewJob(filepath.Base(path), data)
	job.Force = force
	w.Process(ctx, job)

	snap := job.Snapshot()
	switch snap.Status {
	case pipeline.StatusCompleted:
		fmt.Printf("%s: %d records, %d updated, %d inserted\n",
			path, snap.Progress.Records, snap.Progress.Updated, snap.Progress.Inserted)
	case pipeline.StatusDupSkipped:
		fmt.Printf("%s: unchanged since last import, skipped\n", path)
	default:
		for _, e := range snap.Progress.Errors {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, e)
		}
		return false
	}
	return true
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("export: expected one output file")
	}
	out := cmd.Args().First()
	format, err := export.FormatForFile(out)
	if err != nil {
		return err
	}

	db, styles, err := openTable(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.List(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	ex := &export.Exporter{Table: styles, Title: cmd.String("title")}
	if err := ex.Write(f, format, rows); err != nil {
		f.Close()
		os.Remove(out)
		return fmt.Errorf("export %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", len(rows), out)
	return nil
}

func watchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "debounce",
			Usage:   "How long a file must be quiet before it is imported",
			Value:   500 * time.Millisecond,
			Sources: cli.EnvVars("WATCH_DEBOUNCE"),
		},
	}
}

func watchOptions(cmd *cli.Command) watch.Options {
	return watch.Options{
		Debounce: cmd.Duration("debounce"),
		Accept:   parser.IsSupportedExtension,
	}
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("watch: expected one directory")
	}
	log := logger(cmd)
	db, styles, err := openTable(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := pipeline.NewWorker(db, styles, parser.Options{StylePrefix: cmd.String("prefix")}, log, nil)
	return watch.Watch(ctx, cmd.Args().First(), watchOptions(cmd), log, func(path string) {
		importFile(ctx, w, log, path, false)
	})
}
