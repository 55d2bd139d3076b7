package assignment

import (
	"fmt"
	"time"

	"dispatch/internal/pkg/errs"
)

// Outcome labels one history entry.
type Outcome string

const (
	// OutcomeAssigned opens an attempt: the order was leased to a partner.
	OutcomeAssigned Outcome = "assigned"
	// OutcomeAccepted closes an attempt with the partner taking the order.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeRejected closes an attempt with the partner declining.
	OutcomeRejected Outcome = "rejected"
	// OutcomeTimeout closes an attempt whose lease expired unanswered.
	OutcomeTimeout Outcome = "timeout"
	// OutcomeCancelled closes an open attempt because the order was cancelled.
	OutcomeCancelled Outcome = "cancelled"
)

// Validate checks the outcome is known.
func (o Outcome) Validate() error {
	switch o {
	case OutcomeAssigned, OutcomeAccepted, OutcomeRejected, OutcomeTimeout, OutcomeCancelled:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("outcome is invalid", fmt.Errorf("%q is not a valid outcome", string(o)))
	}
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	return string(o)
}

// HistoryEntry is one row of the append-only assignment log. Every attempt
// produces an OutcomeAssigned entry and, once answered, exactly one resolution
// entry for the same attempt number.
type HistoryEntry struct {
	Attempt   int
	PartnerID string
	Outcome   Outcome
	At        time.Time
	Reason    string
}

// Attempt is the per-attempt view folded from the history log.
type Attempt struct {
	Number      int
	PartnerID   string
	AssignedAt  time.Time
	Outcome     Outcome
	RespondedAt *time.Time
	Reason      string
}

// IsOpen reports whether the attempt still waits for an answer.
func (a Attempt) IsOpen() bool {
	return a.Outcome == OutcomeAssigned
}

// foldAttempts collapses assigned/resolution pairs into one view per attempt,
// in attempt order.
func foldAttempts(history []HistoryEntry) []Attempt {
	attempts := make([]Attempt, 0, len(history))
	index := make(map[int]int, len(history))

	for _, e := range history {
		if e.Outcome == OutcomeAssigned {
			index[e.Attempt] = len(attempts)
			attempts = append(attempts, Attempt{
				Number:     e.Attempt,
				PartnerID:  e.PartnerID,
				AssignedAt: e.At,
				Outcome:    OutcomeAssigned,
			})
			continue
		}
		i, ok := index[e.Attempt]
		if !ok {
			continue
		}
		at := e.At
		attempts[i].Outcome = e.Outcome
		attempts[i].RespondedAt = &at
		attempts[i].Reason = e.Reason
	}

	return attempts
}

// validateHistory checks the structural rules of the log: attempts are numbered
// 1..n in order, each attempt is opened once and resolved at most once, and at
// most one attempt is open.
func validateHistory(history []HistoryEntry) error {
	opened := 0
	resolved := make(map[int]bool)
	open := 0

	for i, e := range history {
		if err := e.Outcome.Validate(); err != nil {
			return err
		}
		if e.PartnerID == "" {
			return errs.NewValueIsRequiredError(fmt.Sprintf("history[%d].partnerId", i))
		}
		if e.Outcome == OutcomeAssigned {
			if e.Attempt != opened+1 {
				return errs.NewValueIsInvalidErrorWithCause(
					"history is invalid",
					fmt.Errorf("attempt %d opened after attempt %d", e.Attempt, opened),
				)
			}
			opened++
			open++
			continue
		}
		if e.Attempt < 1 || e.Attempt > opened || resolved[e.Attempt] {
			return errs.NewValueIsInvalidErrorWithCause(
				"history is invalid",
				fmt.Errorf("attempt %d resolved without an open lease", e.Attempt),
			)
		}
		resolved[e.Attempt] = true
		open--
	}

	if open > 1 {
		return errs.NewValueIsInvalidErrorWithCause("history is invalid", fmt.Errorf("%d leases are open", open))
	}
	return nil
}
