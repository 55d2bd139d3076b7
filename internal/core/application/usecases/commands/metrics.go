package commands

import (
	"time"

	"dispatch/internal/core/domain/model/assignment"
)

// Attempt outcomes reported to Metrics.
const (
	AttemptReserved     = "reserved"
	AttemptNoCandidates = "no_candidates"
	AttemptExhausted    = "exhausted"
	AttemptError        = "error"
)

// Metrics receives operational measurements from the engine.
type Metrics interface {
	ObserveAttempt(outcome string, duration time.Duration)
	ObserveTransition(from, to assignment.Status)
	ObserveSweep(expired int, duration time.Duration)
	ObserveReconcile(repaired int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAttempt(string, time.Duration) {}
func (nopMetrics) ObserveTransition(_, _ assignment.Status) {}
func (nopMetrics) ObserveSweep(int, time.Duration) {}
func (nopMetrics) ObserveReconcile(int) {}
