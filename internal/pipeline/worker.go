package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/dmukit/internal/dmu"
	"github.com/dgallion1/dmukit/internal/doctree"
	"github.com/dgallion1/dmukit/internal/parser"
	"github.com/dgallion1/dmukit/internal/store"
)

// Table is the part of the store a worker writes to. *store.DB implements it.
type Table interface {
	Merge(ctx context.Context, records []dmu.Record, source string) (store.MergeResult, error)
	LastImport(ctx context.Context) (*store.Import, error)
	RecordImport(ctx context.Context, im store.Import) error
}

// Worker processes a single import job.
type Worker struct {
	table      Table
	classifier dmu.Classifier
	opts       parser.Options
	log        *slog.Logger
	stats      *ImportStats

	// backoff is Backoff outside tests.
	backoff func(attempt int) time.Duration
}

func NewWorker(table Table, classifier dmu.Classifier, opts parser.Options, log *slog.Logger, stats *ImportStats) *Worker {
	return &Worker{
		table:      table,
		classifier: classifier,
		opts:       opts,
		log:        log,
		stats:      stats,
		backoff:    Backoff,
	}
}

// Process runs the read, key and merge phases for a job. Any document error
// fails the job before the table is touched.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	start := time.Now()
	finish := func(status JobStatus, phase string) {
		job.SetStatus(status, phase)
		if w.stats != nil {
			w.stats.Record(status, time.Since(start))
		}
	}

	// Phase 1: Read
	job.SetStatus(StatusReading, "reading")
	p, err := parser.ForFile(job.Filename, w.opts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		finish(StatusFailed, "reading")
		return
	}
	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("read failed", "error", err)
		job.AddError(fmt.Sprintf("read: %s", err))
		finish(StatusFailed, "reading")
		return
	}
	job.SetParagraphs(len(doc.Paragraphs))
	job.SetContentHash(ContentHashHex([]byte(flattenParagraphs(doc))))

	// Phase 1.5: Dedup against the most recent import.
	if !job.Force {
		last, err := w.table.LastImport(ctx)
		switch {
		case err != nil && !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		case err == nil && last.ContentHash == job.Snapshot().ContentHash:
			log.Info("document unchanged since last import, skipping", "last_import", last.ID)
			finish(StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Key
	job.SetStatus(StatusKeying, "keying")
	records, err := dmu.Build(doc.Paragraphs, w.classifier)
	if err != nil {
		log.Error("keying failed", "error", err)
		job.AddError(err.Error())
		finish(StatusFailed, "keying")
		return
	}
	job.SetRecords(len(records))
	log.Info("keyed document", "paragraphs", len(doc.Paragraphs), "records", len(records))

	// Phase 3: Merge
	job.SetStatus(StatusMerging, "merging")
	res, err := w.merge(ctx, log, job, records)
	if err != nil {
		log.Error("merge failed", "error", err)
		job.AddError(fmt.Sprintf("merge: %s", err))
		finish(StatusFailed, "merging")
		return
	}
	job.SetMerged(res.Updated, res.Inserted)
	log.Info("merge complete", "updated", res.Updated, "inserted", res.Inserted)

	snap := job.Snapshot()
	title := job.Title
	if title == "" {
		title = doc.Title
	}
	if err := w.table.RecordImport(ctx, store.Import{
		Source:      job.Filename,
		Title:       title,
		ContentHash: snap.ContentHash,
		Records:     len(records),
		Updated:     res.Updated,
		Inserted:    res.Inserted,
	}); err != nil {
		log.Warn("import history write failed", "error", err)
		job.AddError(fmt.Sprintf("history: %s", err))
	}

	finish(StatusCompleted, "done")
}

// merge retries transient lock conflicts. The merge is one transaction, so
// a failed attempt leaves the table unchanged.
func (w *Worker) merge(ctx context.Context, log *slog.Logger, job *Job, records []dmu.Record) (store.MergeResult, error) {
	var (
		res     store.MergeResult
		lastErr error
	)
	for attempt := range MaxRetries {
		job.IncrAttempts()
		res, lastErr = w.table.Merge(ctx, records, job.Filename)
		if lastErr == nil || !IsRetryable(lastErr) || attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable merge error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return res, ctx.Err()
		}
	}
	return res, lastErr
}

// flattenParagraphs renders the styled paragraphs into a single string for
// hashing.
func flattenParagraphs(doc *doctree.Document) string {
	var sb strings.Builder
	for _, p := range doc.Paragraphs {
		sb.WriteString(p.Style)
		sb.WriteByte('\t')
		sb.WriteString(p.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}
