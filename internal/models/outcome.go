package models

// Stage is the position of a record in the pipeline state machine.
type Stage int

// Record stages. FilteredOut, Delivered and Failed are terminal.
const (
	StageMapped Stage = iota
	StageNormalized
	StageAttributed
	StageFilteredOut
	StageSubmitted
	StageDelivered
	StageFailed
)

var stageNames = [...]string{"mapped", "normalized", "attributed", "filtered", "submitted", "delivered", "failed"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}

	return stageNames[s]
}

// Terminal reports whether no further transition is possible.
func (s Stage) Terminal() bool {
	return s == StageFilteredOut || s == StageDelivered || s == StageFailed
}

// Status is the final result recorded for a record.
type Status string

// Outcome statuses.
const (
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusFiltered  Status = "filtered"
)

// Outcome is the per-record result of a vendor job.
type Outcome struct {
	Err      error
	Record   *Record
	Status   Status
	Response string
	Payload  string // encoded form body, empty for filtered records
	Reason   string
	Tier     string
	SourceID string
}

// Stage returns the terminal stage matching the outcome status.
func (o Outcome) Stage() Stage {
	switch o.Status {
	case StatusDelivered:
		return StageDelivered
	case StatusFiltered:
		return StageFilteredOut
	default:
		return StageFailed
	}
}

// Detail returns the human readable detail for logs: the response body, the
// failure cause or the filter reason.
func (o Outcome) Detail() string {
	switch o.Status {
	case StatusDelivered:
		return o.Response
	case StatusFiltered:
		return o.Reason
	default:
		if o.Err != nil {
			return o.Err.Error()
		}

		return o.Reason
	}
}
