package report

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jgivc/musicsync/internal/entity"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

type fakeSource struct {
	mu   sync.Mutex
	snap entity.Snapshot
}

func (s *fakeSource) Snapshot() entity.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snap
}

func (s *fakeSource) set(f func(snap *entity.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f(&s.snap)
}

func TestLine(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		snap entity.Snapshot
		now  time.Time
		want string
	}{
		{
			name: "in progress",
			snap: entity.Snapshot{Total: 10, Downloaded: 3, Skipped: 1, Failed: 1, Bytes: 3 * 1024 * 1024, StartedAt: start},
			now:  start.Add(10 * time.Second),
			want: "Progress: 5/10 files (50.0%) | downloaded 3 skipped 1 failed 1 | 3.0 MB | 0.5 files/s | ETA: 10s",
		},
		{
			name: "zero rate",
			snap: entity.Snapshot{Total: 4, StartedAt: start},
			now:  start.Add(2 * time.Second),
			want: "Progress: 0/4 files (0.0%) | downloaded 0 skipped 0 failed 0 | 0.0 MB | 0.0 files/s | ETA: --",
		},
		{
			name: "no elapsed time",
			snap: entity.Snapshot{Total: 4, Skipped: 2, StartedAt: start},
			now:  start,
			want: "Progress: 2/4 files (50.0%) | downloaded 0 skipped 2 failed 0 | 0.0 MB | 0.0 files/s | ETA: --",
		},
		{
			name: "long eta",
			snap: entity.Snapshot{Total: 3601, Downloaded: 1, StartedAt: start},
			now:  start.Add(time.Second),
			want: "Progress: 1/3601 files (0.0%) | downloaded 1 skipped 0 failed 0 | 0.0 MB | 1.0 files/s | ETA: 1h 0m 0s",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Line(tc.snap, tc.now))
		})
	}
}

func TestReporterExitsWhenAllDone(t *testing.T) {
	src := &fakeSource{snap: entity.Snapshot{Total: 2, StartedAt: time.Now()}}
	out := &syncBuffer{}

	r := NewReporter(src, Options{Interval: 5 * time.Millisecond, Output: out})
	r.Start()

	src.set(func(s *entity.Snapshot) { s.Downloaded = 1; s.Failed = 1 })

	select {
	case <-r.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("reporter did not exit after all items were accounted for")
	}

	r.Stop()
	require.Contains(t, out.String(), "Progress: 2/2 files (100.0%)")
}

func TestReporterStop(t *testing.T) {
	src := &fakeSource{snap: entity.Snapshot{Total: 5, StartedAt: time.Now()}}
	out := &syncBuffer{}

	r := NewReporter(src, Options{Interval: time.Hour, Output: out})
	r.Start()
	r.Start()

	src.set(func(s *entity.Snapshot) { s.Skipped = 1 })
	r.Stop()
	r.Stop()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 1, "stop renders the final state once")
	require.Contains(t, lines[0], "Progress: 1/5 files")
}

func TestReporterNoItems(t *testing.T) {
	src := &fakeSource{}
	out := &syncBuffer{}

	r := NewReporter(src, Options{Interval: time.Millisecond, Output: out})
	r.Start()
	time.Sleep(10 * time.Millisecond)
	r.Stop()

	require.Empty(t, out.String())
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer

	RenderSummary(&buf, &entity.Summary{
		Root: "/music",
		Collections: []entity.CollectionSummary{
			{Name: "alpha", Found: 3, Downloaded: 2, Failed: 1, Bytes: 2 * 1024 * 1024},
			{Name: "beta", ListErr: errors.New("forbidden")},
		},
		Totals:  entity.Snapshot{Total: 3, Downloaded: 2, Failed: 1, Bytes: 2 * 1024 * 1024},
		Elapsed: 2 * time.Second,
	})

	out := buf.String()
	require.Contains(t, out, "Sync complete!")
	require.Contains(t, out, "Downloaded:    2 files")
	require.Contains(t, out, "Failed:        1 files")
	require.Contains(t, out, "Total size:    2.0 MB")
	require.Contains(t, out, "Average speed: 1.0 MB/s")
	require.Contains(t, out, "Saved to /music")
	require.Contains(t, out, "alpha: 3 files (downloaded 2, skipped 0, failed 1, 2.0 MB)")
	require.Contains(t, out, "beta: listing failed: forbidden")
	require.Contains(t, out, "Run again to retry")
}

func TestRenderSummaryInterrupted(t *testing.T) {
	var buf bytes.Buffer

	RenderSummary(&buf, &entity.Summary{Root: "music", Interrupted: true})

	require.Contains(t, buf.String(), "Run again to resume")
	require.NotContains(t, buf.String(), "retry")
}

func TestFormatDuration(t *testing.T) {
	testCases := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "0s"},
		{in: 1400 * time.Millisecond, want: "1s"},
		{in: 59*time.Second + 600*time.Millisecond, want: "1m 0s"},
		{in: 2*time.Minute + 5*time.Second, want: "2m 5s"},
		{in: time.Hour, want: "1h 0m 0s"},
		{in: 26*time.Hour + 3*time.Minute + 4*time.Second, want: "26h 3m 4s"},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.want, formatDuration(tc.in), "formatDuration(%s)", tc.in)
	}
}
