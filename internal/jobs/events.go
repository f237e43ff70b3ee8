package jobs

import (
	"fmt"
	"time"
)

// Operation identifies the kind of work a job performs.
type Operation string

const (
	OpListing    Operation = "listing"
	OpEnrollment Operation = "enrollment"
	OpSynthesis  Operation = "synthesis"
	OpDelete     Operation = "delete"
)

// Mutating reports whether the operation needs the exclusive slot.
// Listing is read-only and may run alongside anything.
func (o Operation) Mutating() bool {
	return o != OpListing
}

// Kind classifies an event.
type Kind string

const (
	KindProgress  Kind = "progress"
	KindSucceeded Kind = "succeeded"
	KindFailed    Kind = "failed"
)

// Terminal reports whether no further events follow this kind.
func (k Kind) Terminal() bool {
	return k == KindSucceeded || k == KindFailed
}

// Event is a single progress or completion notice for a job.
type Event struct {
	Seq       int
	JobID     string
	Operation Operation
	Kind      Kind
	Percent   int
	Message   string
	Time      time.Time
}

func (e Event) String() string {
	return fmt.Sprintf("[%s %3d%%] %s", e.Operation, e.Percent, e.Message)
}

// ProgressFunc receives a percent in [0,100] and a short description.
type ProgressFunc func(percent int, message string)

func noProgress(int, string) {}

func clampPercent(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
