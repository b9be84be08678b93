package entity

import "time"

// CollectionSummary is the per-collection result of a sync run.
type CollectionSummary struct {
	Name       string
	Found      int // Items matched by the enumerator
	Downloaded int
	Skipped    int
	Failed     int
	Bytes      int64
	ListErr    error // Set when the collection could not be listed
}

// Summary is the result of a whole sync run.
type Summary struct {
	Root          string
	Collections   []CollectionSummary
	Totals        Snapshot
	Elapsed       time.Duration
	Interrupted   bool
	ProgressReset bool
}
