package entity

const (
	OutcomeSkipped Outcome = iota
	OutcomeDownloaded
	OutcomeFailed
)

// Outcome is the result of processing one work item.
type Outcome int

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeDownloaded:
		return "downloaded"
	case OutcomeFailed:
		return "failed"
	}

	return "unknown"
}
