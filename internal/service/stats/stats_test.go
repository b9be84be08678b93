package stats

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jgivc/musicsync/internal/entity"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewAt(start)
	s.SetTotal(5)

	s.Record(entity.OutcomeDownloaded, 100)
	s.Record(entity.OutcomeDownloaded, 50)
	s.Record(entity.OutcomeSkipped, 999)
	s.Record(entity.OutcomeFailed, 999)

	require.Equal(t, entity.Snapshot{
		Total:      5,
		Downloaded: 2,
		Skipped:    1,
		Failed:     1,
		Bytes:      150,
		StartedAt:  start,
	}, s.Snapshot())
	require.Equal(t, 4, s.Snapshot().Done())
	require.Equal(t, 1, s.Snapshot().Remaining())
}

func TestStartClock(t *testing.T) {
	s := NewAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s.SetTotal(3)
	s.Record(entity.OutcomeSkipped, 0)

	before := time.Now()
	s.StartClock()

	snap := s.Snapshot()
	require.False(t, snap.StartedAt.Before(before))
	require.Equal(t, 3, snap.Total, "counters are kept")
	require.Equal(t, 1, snap.Skipped)
}

func TestRecordConcurrent(t *testing.T) {
	s := New()

	const perOutcome = 200
	outcomes := []entity.Outcome{entity.OutcomeDownloaded, entity.OutcomeSkipped, entity.OutcomeFailed}

	var wg sync.WaitGroup
	for _, o := range outcomes {
		for i := 0; i < perOutcome; i++ {
			wg.Add(1)
			go func(o entity.Outcome) {
				defer wg.Done()
				s.Record(o, 10)
				_ = s.Snapshot()
			}(o)
		}
	}
	wg.Wait()

	snap := s.Snapshot()
	require.Equal(t, perOutcome, snap.Downloaded)
	require.Equal(t, perOutcome, snap.Skipped)
	require.Equal(t, perOutcome, snap.Failed)
	require.Equal(t, int64(perOutcome*10), snap.Bytes)
}

func TestCollector(t *testing.T) {
	s := New()
	s.SetTotal(3)
	s.Record(entity.OutcomeDownloaded, 2048)
	s.Record(entity.OutcomeFailed, 0)

	expected := `
# HELP musicsync_downloaded_bytes_total Bytes committed to disk in this run.
# TYPE musicsync_downloaded_bytes_total counter
musicsync_downloaded_bytes_total 2048
# HELP musicsync_items_discovered Number of remote items discovered in this run.
# TYPE musicsync_items_discovered gauge
musicsync_items_discovered 3
# HELP musicsync_items_total Number of processed items by outcome.
# TYPE musicsync_items_total counter
musicsync_items_total{outcome="downloaded"} 1
musicsync_items_total{outcome="failed"} 1
musicsync_items_total{outcome="skipped"} 0
`
	require.NoError(t, testutil.CollectAndCompare(NewCollector(s), strings.NewReader(expected)))
}
