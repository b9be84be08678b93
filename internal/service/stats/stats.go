package stats

import (
	"sync"
	"time"

	"github.com/jgivc/musicsync/internal/entity"
)

// Stats holds the run counters. All access goes through one mutex.
type Stats struct {
	mu   sync.Mutex
	snap entity.Snapshot
}

func New() *Stats {
	return NewAt(time.Now())
}

func NewAt(start time.Time) *Stats {
	return &Stats{
		snap: entity.Snapshot{StartedAt: start},
	}
}

func (s *Stats) SetTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.Total = n
}

// StartClock moves the start time to now, so that rate and ETA only cover
// the dispatch phase.
func (s *Stats) StartClock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap.StartedAt = time.Now()
}

// Record counts one outcome. bytes is only added for downloads.
func (s *Stats) Record(outcome entity.Outcome, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch outcome {
	case entity.OutcomeDownloaded:
		s.snap.Downloaded++
		s.snap.Bytes += bytes
	case entity.OutcomeSkipped:
		s.snap.Skipped++
	case entity.OutcomeFailed:
		s.snap.Failed++
	}
}

func (s *Stats) Snapshot() entity.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snap
}
