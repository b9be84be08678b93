package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jgivc/musicsync/internal/common"
	"github.com/jgivc/musicsync/internal/entity"
	"github.com/spf13/afero"
)

const (
	serviceName = "download"

	// PartSuffix marks in-flight downloads. Files with it are never final.
	PartSuffix = ".musicsync-part"
)

// Fetcher streams the full content of a remote item into w.
type Fetcher interface {
	Fetch(ctx context.Context, id string, w io.Writer) (int64, error)
}

// FetcherFactory hands out independent fetchers, one per download.
type FetcherFactory interface {
	NewFetcher(ctx context.Context) (Fetcher, error)
}

type ProgressStore interface {
	Contains(id string) bool
	MarkDone(ctx context.Context, id string)
}

type StatsRecorder interface {
	Record(outcome entity.Outcome, bytes int64)
}

// Result is the structured outcome of processing one item.
type Result struct {
	Item    entity.RemoteItem
	Outcome entity.Outcome
	Bytes   int64
	Err     error
}

type Options struct {
	FetchTimeout time.Duration // 0 means no timeout
}

type Worker struct {
	fs       afero.Fs
	factory  FetcherFactory
	progress ProgressStore
	stats    StatsRecorder
	opts     Options
	log      *slog.Logger
}

func NewWorker(fs afero.Fs, factory FetcherFactory, progress ProgressStore, stats StatsRecorder, opts Options, log *slog.Logger) *Worker {
	return &Worker{
		fs:       fs,
		factory:  factory,
		progress: progress,
		stats:    stats,
		opts:     opts,
		log:      log.With(slog.String("service", serviceName)),
	}
}

// Process makes sure item exists at dir/<name>. It never panics or returns an
// error past this boundary: failures come back as an OutcomeFailed result.
// Every result is recorded in stats exactly once.
func (w *Worker) Process(ctx context.Context, item entity.RemoteItem, dir string) Result {
	res := w.process(ctx, item, dir)
	w.stats.Record(res.Outcome, res.Bytes)

	log := w.log.With(slog.String("id", item.ID), slog.String("name", item.Name), slog.String("dir", dir))
	switch res.Outcome {
	case entity.OutcomeSkipped:
		log.Debug("Skipped")
	case entity.OutcomeDownloaded:
		log.Info("Downloaded", slog.Int64("bytes", res.Bytes))
	case entity.OutcomeFailed:
		log.Error("Cannot download", slog.Any("error", res.Err))
	}

	return res
}

func (w *Worker) process(ctx context.Context, item entity.RemoteItem, dir string) Result {
	res := Result{Item: item, Outcome: entity.OutcomeSkipped}

	if w.progress.Contains(item.ID) {
		return res
	}

	name, err := LocalName(item.Name)
	if err != nil {
		res.Outcome, res.Err = entity.OutcomeFailed, err

		return res
	}
	path := filepath.Join(dir, name)

	if w.hasLocalCopy(path, item) {
		w.progress.MarkDone(ctx, item.ID)

		return res
	}

	n, err := w.download(ctx, item, dir, path)
	if err != nil {
		res.Outcome, res.Err = entity.OutcomeFailed, err

		return res
	}

	w.progress.MarkDone(ctx, item.ID)
	res.Outcome, res.Bytes = entity.OutcomeDownloaded, n

	return res
}

// hasLocalCopy reports whether path holds a file of the known remote size.
// An unknown size is inconclusive and never matches.
func (w *Worker) hasLocalCopy(path string, item entity.RemoteItem) bool {
	if !item.SizeKnown {
		return false
	}

	info, err := w.fs.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	return info.Size() == item.Size
}

// download fetches into a temp file next to path and renames it into place.
// The temp file is removed on every failure path.
func (w *Worker) download(ctx context.Context, item entity.RemoteItem, dir, path string) (n int64, err error) {
	if err := w.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("cannot create dir %s: %w", dir, err)
	}

	fetcher, err := w.factory.NewFetcher(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot create fetcher: %w", err)
	}

	tmp := path + "." + uuid.NewString() + PartSuffix
	f, err := w.fs.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("cannot create temp file %s: %w", tmp, err)
	}

	closed := false
	defer func() {
		if !closed {
			f.Close()
		}
		if err != nil {
			w.fs.Remove(tmp)
		}
	}()

	fctx := ctx
	if w.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, w.opts.FetchTimeout)
		defer cancel()
	}

	n, err = fetcher.Fetch(fctx, item.ID, f)
	if err != nil {
		return 0, fmt.Errorf("cannot fetch %s: %w", item.ID, err)
	}

	if err = f.Sync(); err != nil {
		return 0, fmt.Errorf("cannot sync temp file %s: %w", tmp, err)
	}

	closed = true
	if err = f.Close(); err != nil {
		return 0, fmt.Errorf("cannot close temp file %s: %w", tmp, err)
	}

	if item.SizeKnown && n != item.Size {
		err = fmt.Errorf("%w: expected %d, got %d", common.ErrSizeMismatch, item.Size, n)

		return 0, err
	}

	if err = w.fs.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("cannot rename %s to %s: %w", tmp, path, err)
	}

	return n, nil
}

// SweepTemp removes temp files abandoned by an interrupted run.
func (w *Worker) SweepTemp(dir string) (int, error) {
	matches, err := afero.Glob(w.fs, filepath.Join(dir, "*"+PartSuffix))
	if err != nil {
		return 0, fmt.Errorf("cannot list temp files in %s: %w", dir, err)
	}

	var errs []error
	removed := 0
	for _, m := range matches {
		if err := w.fs.Remove(m); err != nil {
			errs = append(errs, err)

			continue
		}
		removed++
	}

	if removed > 0 {
		w.log.Info("Removed abandoned temp files", slog.String("dir", dir), slog.Int("count", removed))
	}

	return removed, errors.Join(errs...)
}

// LocalName maps a remote name to a single path element.
func LocalName(name string) (string, error) {
	local := strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if local == "" || local == "." || local == ".." || strings.HasSuffix(local, PartSuffix) {
		return "", fmt.Errorf("%w: %q", common.ErrInvalidName, name)
	}

	return local, nil
}
