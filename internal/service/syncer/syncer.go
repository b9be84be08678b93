package syncer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jgivc/musicsync/internal/config"
	"github.com/jgivc/musicsync/internal/entity"
	"github.com/jgivc/musicsync/internal/service/enumerate"
	"github.com/jgivc/musicsync/internal/service/report"
	"github.com/spf13/afero"
)

const (
	serviceName = "syncer"
)

type Enumerator interface {
	ListAll(ctx context.Context, collections []entity.Collection) []enumerate.Listing
}

type Worker interface {
	Processor
	SweepTemp(dir string) (int, error)
}

type ProgressStore interface {
	Len() int
	Reset(ctx context.Context) error
}

type Stats interface {
	SetTotal(n int)
	StartClock()
	Snapshot() entity.Snapshot
}

type Reporter interface {
	Start()
	Stop()
}

type Options struct {
	Root        string
	Workers     int
	ResetPolicy string

	// Output receives the scan and summary text. Default: os.Stdout.
	Output io.Writer
}

type Syncer struct {
	fs          afero.Fs
	collections []entity.Collection
	enum        Enumerator
	worker      Worker
	progress    ProgressStore
	stats       Stats
	reporter    Reporter
	opts        Options
	log         *slog.Logger
}

func NewSyncer(fs afero.Fs, collections []entity.Collection, enum Enumerator, worker Worker,
	progress ProgressStore, stats Stats, reporter Reporter, opts Options, log *slog.Logger,
) *Syncer {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Syncer{
		fs:          fs,
		collections: collections,
		enum:        enum,
		worker:      worker,
		progress:    progress,
		stats:       stats,
		reporter:    reporter,
		opts:        opts,
		log:         log.With(slog.String("service", serviceName)),
	}
}

// Run syncs every collection once. Per-item failures are reported in the
// summary. The returned error is non-nil only when ctx was cancelled.
func (s *Syncer) Run(ctx context.Context) (*entity.Summary, error) {
	start := time.Now()
	summary := &entity.Summary{Root: s.opts.Root}

	s.log.Info("Starting sync",
		slog.Int("collections", len(s.collections)),
		slog.Int("workers", s.opts.Workers),
		slog.Int("previously_completed", s.progress.Len()),
	)

	fmt.Fprintln(s.opts.Output, "Scanning folders...")
	listings := s.enum.ListAll(ctx, s.collections)

	total := 0
	for _, l := range listings {
		if l.Err != nil {
			fmt.Fprintf(s.opts.Output, "  %s: listing failed\n", l.Collection.Name)

			continue
		}

		fmt.Fprintf(s.opts.Output, "  %s: %d files\n", l.Collection.Name, len(l.Items))
		total += len(l.Items)
	}

	s.stats.SetTotal(total)
	s.log.Info("Scan finished", slog.Int("collections", len(listings)), slog.Int("total", total))

	if total == 0 {
		for _, l := range listings {
			summary.Collections = append(summary.Collections, entity.CollectionSummary{Name: l.Collection.Name, ListErr: l.Err})
		}
		summary.Totals = s.stats.Snapshot()
		summary.Elapsed = time.Since(start)

		if ctx.Err() != nil {
			summary.Interrupted = true

			return summary, ctx.Err()
		}

		fmt.Fprintln(s.opts.Output, "No files to download.")

		return summary, nil
	}

	fmt.Fprintf(s.opts.Output, "Total: %d files to sync\n", total)

	s.stats.StartClock()
	s.reporter.Start()

	for _, l := range listings {
		cs := entity.CollectionSummary{Name: l.Collection.Name, Found: len(l.Items), ListErr: l.Err}

		if l.Err == nil && len(l.Items) > 0 && ctx.Err() == nil {
			s.syncCollection(ctx, l, &cs)
		}

		summary.Collections = append(summary.Collections, cs)
	}

	s.reporter.Stop()

	summary.Totals = s.stats.Snapshot()
	summary.Elapsed = time.Since(start)
	summary.Interrupted = ctx.Err() != nil

	if s.shouldReset(summary) {
		if err := s.progress.Reset(ctx); err != nil {
			s.log.Error("Cannot reset progress", slog.Any("error", err))
		} else {
			summary.ProgressReset = true
		}
	}

	report.RenderSummary(s.opts.Output, summary)

	s.log.Info("Sync finished",
		slog.Int("downloaded", summary.Totals.Downloaded),
		slog.Int("skipped", summary.Totals.Skipped),
		slog.Int("failed", summary.Totals.Failed),
		slog.Bool("interrupted", summary.Interrupted),
		slog.Bool("progress_reset", summary.ProgressReset),
	)

	if summary.Interrupted {
		return summary, ctx.Err()
	}

	return summary, nil
}

// syncCollection drains one pool over the listing before returning.
func (s *Syncer) syncCollection(ctx context.Context, l enumerate.Listing, cs *entity.CollectionSummary) {
	name := l.Collection.Name
	dir := filepath.Join(s.opts.Root, name)
	log := s.log.With(slog.String("collection", name), slog.String("dir", dir))

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		log.Error("Cannot create collection dir", slog.Any("error", err))
	}

	if _, err := s.worker.SweepTemp(dir); err != nil {
		log.Warn("Cannot remove abandoned temp files", slog.Any("error", err))
	}

	log.Info("Syncing collection", slog.Int("items", len(l.Items)))

	pool := NewPool(s.opts.Workers, s.worker, s.log)
	for res := range pool.Run(ctx, l.Items, dir) {
		switch res.Outcome {
		case entity.OutcomeDownloaded:
			cs.Downloaded++
			cs.Bytes += res.Bytes
		case entity.OutcomeSkipped:
			cs.Skipped++
		case entity.OutcomeFailed:
			cs.Failed++
		}
	}

	log.Info("Collection finished",
		slog.Int("completed", cs.Downloaded+cs.Skipped),
		slog.Int("found", cs.Found),
		slog.Int("failed", cs.Failed),
	)
}

// shouldReset applies the reset policy. An interrupted run never resets.
func (s *Syncer) shouldReset(summary *entity.Summary) bool {
	if summary.Interrupted {
		return false
	}

	switch s.opts.ResetPolicy {
	case config.ResetPolicyAlways:
		return true
	case config.ResetPolicyNever:
		return false
	default:
		if summary.Totals.Failed > 0 {
			return false
		}

		for _, c := range summary.Collections {
			if c.ListErr != nil {
				return false
			}
		}

		return true
	}
}
