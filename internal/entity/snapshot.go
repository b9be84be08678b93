package entity

import "time"

// Snapshot is a consistent copy of the sync counters.
type Snapshot struct {
	Total      int       `json:"total"`
	Downloaded int       `json:"downloaded"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Bytes      int64     `json:"bytes"`
	StartedAt  time.Time `json:"started_at"`
}

// Done returns the number of items that reached a final outcome.
func (s Snapshot) Done() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// Remaining returns the number of discovered items without an outcome yet.
func (s Snapshot) Remaining() int {
	if r := s.Total - s.Done(); r > 0 {
		return r
	}

	return 0
}
