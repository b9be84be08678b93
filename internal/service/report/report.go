package report

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jgivc/musicsync/internal/entity"
	"golang.org/x/term"
)

const (
	defaultInterval = 2 * time.Second
	bytesInMB       = 1024 * 1024
)

type SnapshotSource interface {
	Snapshot() entity.Snapshot
}

type Options struct {
	// Interval is how often the status line is refreshed. Default: 2s.
	Interval time.Duration

	// Output is where the status line goes. Default: os.Stdout.
	Output io.Writer
}

// Reporter renders a live status line from periodic snapshots. It stops on
// its own once every discovered item has an outcome, or when Stop is called.
type Reporter struct {
	src  SnapshotSource
	opts Options
	tty  bool

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewReporter(src SnapshotSource, opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}

	return &Reporter{
		src:    src,
		opts:   opts,
		tty:    isTerminal(opts.Output),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the update loop. It does nothing when no items were
// discovered or when the reporter was already started.
func (r *Reporter) Start() {
	if r.src.Snapshot().Total == 0 {
		return
	}
	if !r.started.CompareAndSwap(false, true) {
		return
	}

	go r.updateLoop()
}

// Stop ends the update loop and waits for it to exit. Safe to call more than
// once and without Start.
func (r *Reporter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })

	if r.started.Load() {
		<-r.doneCh
	}
}

func (r *Reporter) updateLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.print(r.src.Snapshot())
			r.endLine()

			return
		case <-ticker.C:
			snap := r.src.Snapshot()
			r.print(snap)

			if snap.Done() >= snap.Total {
				r.endLine()

				return
			}
		}
	}
}

func (r *Reporter) print(snap entity.Snapshot) {
	line := Line(snap, time.Now())
	if r.tty {
		fmt.Fprintf(r.opts.Output, "\r%s    ", line)

		return
	}

	fmt.Fprintln(r.opts.Output, line)
}

func (r *Reporter) endLine() {
	if r.tty {
		fmt.Fprintln(r.opts.Output)
	}
}

// Line renders one status line for snap as observed at now.
func Line(snap entity.Snapshot, now time.Time) string {
	done := snap.Done()

	var percent float64
	if snap.Total > 0 {
		percent = float64(done) / float64(snap.Total) * 100
	}

	elapsed := now.Sub(snap.StartedAt).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(done) / elapsed
	}

	eta := "--"
	if rate > 0 {
		eta = formatDuration(time.Duration(float64(snap.Remaining()) / rate * float64(time.Second)))
	}

	return fmt.Sprintf("Progress: %d/%d files (%.1f%%) | downloaded %d skipped %d failed %d | %.1f MB | %.1f files/s | ETA: %s",
		done, snap.Total, percent,
		snap.Downloaded, snap.Skipped, snap.Failed,
		float64(snap.Bytes)/bytesInMB,
		rate,
		eta,
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}

// formatDuration renders d as "1h 2m 3s", dropping leading zero units.
func formatDuration(d time.Duration) string {
	total := int64(d.Round(time.Second) / time.Second)
	h, m, sec := total/3600, total/60%60, total%60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, sec)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
