package assignment

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var (
	// ErrAssignmentIsNotConstructed is returned when an Assignment instance was not created
	// through NewAssignment or Restore.
	ErrAssignmentIsNotConstructed = errors.New("Assignment must be created via NewAssignment constructor")

	// ErrNotLeaseHolder is the cause of transitions attempted by a partner that does not
	// hold the assignment.
	ErrNotLeaseHolder = errors.New("partner does not hold the assignment")

	// ErrLeaseNotExpired is the cause of a timeout attempted before timeoutAt.
	ErrLeaseNotExpired = errors.New("lease has not expired")

	// ErrLeaseExpired is the cause of an accept that arrives at or after timeoutAt.
	ErrLeaseExpired = errors.New("lease has expired")

	// ErrAttemptsExhausted is the cause of a reservation attempted with no attempts left.
	ErrAttemptsExhausted = errors.New("assignment attempts are exhausted")

	// ErrAttemptsRemaining is the cause of an exhaustion attempted while attempts remain.
	ErrAttemptsRemaining = errors.New("assignment attempts remain")
)

// Customer-facing messages. A retrying assignment and a failed one must never share text.
const (
	MessageSearching = "We're finding a delivery partner for your order. This can take a few minutes."
	MessageAssigned  = "A delivery partner has been offered your order."
	MessageAccepted  = "A delivery partner accepted your order and is heading to the restaurant."
	MessageInTransit = "Your order has been picked up and is on its way."
	MessageDelivered = "Your order has been delivered."
	MessageCancelled = "Your order was cancelled."
	MessageFailed    = "We couldn't find a delivery partner for your order. Please try again later."
)

// NewAssignmentParams carries the order context supplied by the order-placement flow.
type NewAssignmentParams struct {
	OrderID            string
	CustomerID         string
	RestaurantID       string
	RestaurantLocation kernel.Location
	CustomerLocation   kernel.Location
	Summary            OrderSummary
	Priority           int
	RadiusKm           float64
	MaxAttempts        int
}

// Assignment is the aggregate root of the dispatch core: one per order, it owns
// the lease protocol and the append-only history of attempts.
//
// Assignment follows these invariants:
//   - assignedTo is set iff the status holds a partner (assigned, accepted, in_transit)
//   - timeoutAt is set iff the status is assigned
//   - at most one history attempt is open, and only while assigned
//   - currentAttempt equals the number of opened attempts and increments by one per reserve
//   - terminal states reject every further transition
//
// Rejected transitions return an *errs.InvalidTransitionError and leave the aggregate unchanged.
type Assignment struct {
	orderID            string
	customerID         string
	restaurantID       string
	restaurantLocation kernel.Location
	customerLocation   kernel.Location
	summary            OrderSummary

	status         Status
	assignedTo     *string
	timeoutAt      *time.Time
	priority       int
	currentAttempt int
	maxAttempts    int
	radiusKm       float64
	candidates     []Candidate

	history          []HistoryEntry
	persistedHistory int

	version   int
	createdAt time.Time
	updatedAt time.Time

	events        []StatusChanged
	isConstructed bool
}

// NewAssignment creates a pending assignment for an order.
//
// Example:
//
//	a, err := assignment.NewAssignment(assignment.NewAssignmentParams{
//	    OrderID: "o-1", CustomerID: "c-1", RestaurantID: "r-1",
//	    RestaurantLocation: restaurant, CustomerLocation: customer,
//	    Summary: assignment.OrderSummary{TotalAmount: 420, ItemCount: 2},
//	    RadiusKm: 5, MaxAttempts: 3,
//	}, time.Now())
func NewAssignment(p NewAssignmentParams, now time.Time) (*Assignment, error) {
	a := &Assignment{
		status:        Pending,
		priority:      p.Priority,
		summary:       p.Summary.normalized(),
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		a.setIDs(p.OrderID, p.CustomerID, p.RestaurantID),
		a.setLocations(p.RestaurantLocation, p.CustomerLocation),
		p.Summary.Validate(),
		a.setRadius(p.RadiusKm),
		a.setMaxAttempts(p.MaxAttempts),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// RestoreParams carries the full persisted state of an assignment.
type RestoreParams struct {
	NewAssignmentParams

	Status         Status
	AssignedTo     *string
	TimeoutAt      *time.Time
	CurrentAttempt int
	Candidates     []Candidate
	History        []HistoryEntry
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Restore rebuilds an assignment from persistence and re-checks every invariant,
// so a corrupted row surfaces as an error instead of a broken aggregate.
func Restore(p RestoreParams) (*Assignment, error) {
	a, err := NewAssignment(p.NewAssignmentParams, p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := p.Status.Validate(); err != nil {
		return nil, err
	}
	a.status = p.Status
	a.assignedTo = cloneString(p.AssignedTo)
	a.timeoutAt = cloneTime(p.TimeoutAt)
	a.currentAttempt = p.CurrentAttempt
	a.candidates = slices.Clone(p.Candidates)
	a.history = slices.Clone(p.History)
	a.persistedHistory = len(p.History)
	a.version = p.Version
	a.updatedAt = p.UpdatedAt

	if err := a.checkInvariants(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate ensures the Assignment instance was properly constructed.
func (a *Assignment) Validate() error {
	if a == nil || !a.isConstructed {
		return ErrAssignmentIsNotConstructed
	}
	return nil
}

// OrderID returns the order the assignment belongs to.
func (a *Assignment) OrderID() string { return a.orderID }

// CustomerID returns the ordering customer.
func (a *Assignment) CustomerID() string { return a.customerID }

// RestaurantID returns the preparing restaurant.
func (a *Assignment) RestaurantID() string { return a.restaurantID }

// RestaurantLocation returns the pickup point used as the search center.
func (a *Assignment) RestaurantLocation() kernel.Location { return a.restaurantLocation }

// CustomerLocation returns the drop point.
func (a *Assignment) CustomerLocation() kernel.Location { return a.customerLocation }

// Summary returns the denormalized order content.
func (a *Assignment) Summary() OrderSummary { return a.summary }

// Status returns the current lifecycle state.
func (a *Assignment) Status() Status { return a.status }

// AssignedTo returns the partner attached to the assignment, or nil.
func (a *Assignment) AssignedTo() *string { return cloneString(a.assignedTo) }

// TimeoutAt returns the lease deadline while assigned, or nil.
func (a *Assignment) TimeoutAt() *time.Time { return cloneTime(a.timeoutAt) }

// Priority returns the scheduling priority; higher is served first.
func (a *Assignment) Priority() int { return a.priority }

// CurrentAttempt returns how many reservations were made.
func (a *Assignment) CurrentAttempt() int { return a.currentAttempt }

// MaxAttempts returns the attempt budget.
func (a *Assignment) MaxAttempts() int { return a.maxAttempts }

// RadiusKm returns the search radius.
func (a *Assignment) RadiusKm() float64 { return a.radiusKm }

// Candidates returns the ranked list recorded on the last reservation.
func (a *Assignment) Candidates() []Candidate { return slices.Clone(a.candidates) }

// History returns a copy of the append-only log.
func (a *Assignment) History() []HistoryEntry { return slices.Clone(a.history) }

// Attempts returns the history folded into one view per attempt.
func (a *Assignment) Attempts() []Attempt { return foldAttempts(a.history) }

// Version returns the optimistic concurrency token of the loaded state.
func (a *Assignment) Version() int { return a.version }

// CreatedAt returns the creation time.
func (a *Assignment) CreatedAt() time.Time { return a.createdAt }

// UpdatedAt returns the time of the last transition.
func (a *Assignment) UpdatedAt() time.Time { return a.updatedAt }

// HasAttemptsLeft reports whether another reservation fits the budget.
func (a *Assignment) HasAttemptsLeft() bool {
	return a.currentAttempt < a.maxAttempts
}

// Retryable reports whether callers should expect further progress without
// submitting a new request.
func (a *Assignment) Retryable() bool {
	return a.status == Pending
}

// CustomerMessage returns the customer-facing description of the current state.
func (a *Assignment) CustomerMessage() string {
	switch a.status {
	case Pending:
		return MessageSearching
	case Assigned:
		return MessageAssigned
	case Accepted:
		return MessageAccepted
	case InTransit:
		return MessageInTransit
	case Delivered:
		return MessageDelivered
	case Cancelled:
		return MessageCancelled
	case Failed:
		return MessageFailed
	default:
		return ""
	}
}

// RejectedPartners returns the partners that explicitly declined this order.
func (a *Assignment) RejectedPartners() map[string]struct{} {
	out := make(map[string]struct{})
	for _, e := range a.history {
		if e.Outcome == OutcomeRejected {
			out[e.PartnerID] = struct{}{}
		}
	}
	return out
}

// Reserve leases the order to partnerID until now+lease and records the ranked
// candidate list of this attempt. Allowed only from pending with attempts left.
func (a *Assignment) Reserve(partnerID string, lease time.Duration, now time.Time, ranked []Candidate) error {
	const action = "reserve"
	if a.status != Pending {
		return errs.NewInvalidTransitionError(action, a.status.String())
	}
	if !a.HasAttemptsLeft() {
		return errs.NewInvalidTransitionErrorWithCause(action, a.status.String(), ErrAttemptsExhausted)
	}
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return errs.NewValueIsRequiredError("partnerId")
	}
	if lease <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("lease is invalid", fmt.Errorf("%s is not positive", lease))
	}

	deadline := now.Add(lease)
	a.currentAttempt++
	a.assignedTo = &partnerID
	a.timeoutAt = &deadline
	a.candidates = slices.Clone(ranked)
	a.history = append(a.history, HistoryEntry{
		Attempt:   a.currentAttempt,
		PartnerID: partnerID,
		Outcome:   OutcomeAssigned,
		At:        now,
	})
	a.transition(Assigned, partnerID, now)
	return nil
}

// Accept records that the lease holder took the order. The lease must still be
// running: once now reaches timeoutAt only Timeout can resolve the attempt.
func (a *Assignment) Accept(partnerID string, now time.Time) error {
	const action = "accept"
	if err := a.checkLeaseHolder(action, Assigned, partnerID); err != nil {
		return err
	}
	if a.timeoutAt != nil && !now.Before(*a.timeoutAt) {
		return errs.NewInvalidTransitionErrorWithCause(action, a.status.String(), ErrLeaseExpired)
	}

	a.resolve(OutcomeAccepted, "", now)
	a.timeoutAt = nil
	a.transition(Accepted, partnerID, now)
	return nil
}

// Reject records that the lease holder declined the order and returns it to pending.
func (a *Assignment) Reject(partnerID, reason string, now time.Time) error {
	if err := a.checkLeaseHolder("reject", Assigned, partnerID); err != nil {
		return err
	}

	a.resolve(OutcomeRejected, strings.TrimSpace(reason), now)
	a.release()
	a.transition(Pending, partnerID, now)
	return nil
}

// Timeout expires the lease once now has reached timeoutAt and returns the order to pending.
func (a *Assignment) Timeout(now time.Time) error {
	const action = "timeout"
	if a.status != Assigned {
		return errs.NewInvalidTransitionError(action, a.status.String())
	}
	if a.timeoutAt == nil || now.Before(*a.timeoutAt) {
		return errs.NewInvalidTransitionErrorWithCause(action, a.status.String(), ErrLeaseNotExpired)
	}

	partnerID := *a.assignedTo
	a.resolve(OutcomeTimeout, "", now)
	a.release()
	a.transition(Pending, partnerID, now)
	return nil
}

// Exhaust fails a pending assignment whose attempt budget is spent.
func (a *Assignment) Exhaust(now time.Time) error {
	const action = "exhaust"
	if a.status != Pending {
		return errs.NewInvalidTransitionError(action, a.status.String())
	}
	if a.HasAttemptsLeft() {
		return errs.NewInvalidTransitionErrorWithCause(action, a.status.String(), ErrAttemptsRemaining)
	}

	a.transition(Failed, "", now)
	return nil
}

// PickUp records that the partner collected the order from the restaurant.
func (a *Assignment) PickUp(partnerID string, now time.Time) error {
	if err := a.checkLeaseHolder("pick up", Accepted, partnerID); err != nil {
		return err
	}

	a.transition(InTransit, partnerID, now)
	return nil
}

// Deliver records that the partner handed the order to the customer.
func (a *Assignment) Deliver(partnerID string, now time.Time) error {
	if err := a.checkLeaseHolder("deliver", InTransit, partnerID); err != nil {
		return err
	}

	a.release()
	a.transition(Delivered, partnerID, now)
	return nil
}

// Cancel moves any non-terminal assignment to cancelled, closing an open lease.
func (a *Assignment) Cancel(now time.Time) error {
	if a.status.IsTerminal() {
		return errs.NewInvalidTransitionError("cancel", a.status.String())
	}

	partnerID := ""
	if a.assignedTo != nil {
		partnerID = *a.assignedTo
	}
	if a.status == Assigned {
		a.resolve(OutcomeCancelled, "", now)
	}
	a.release()
	a.transition(Cancelled, partnerID, now)
	return nil
}

// WidenRadius grows the search radius of a pending assignment by stepKm, capped
// at maxKm. It reports whether the radius changed.
func (a *Assignment) WidenRadius(stepKm, maxKm float64, now time.Time) bool {
	if a.status != Pending || stepKm <= 0 || a.radiusKm >= maxKm {
		return false
	}
	a.radiusKm = math.Min(a.radiusKm+stepKm, maxKm)
	a.updatedAt = now
	return true
}

// PendingHistory returns the entries appended since the last MarkPersisted.
func (a *Assignment) PendingHistory() []HistoryEntry {
	return slices.Clone(a.history[a.persistedHistory:])
}

// MarkPersisted records that the current state was stored under version.
func (a *Assignment) MarkPersisted(version int) {
	a.persistedHistory = len(a.history)
	a.version = version
}

// DomainEvents returns the events raised since the last ClearDomainEvents.
func (a *Assignment) DomainEvents() []StatusChanged {
	return slices.Clone(a.events)
}

// ClearDomainEvents drops raised events after they were dispatched.
func (a *Assignment) ClearDomainEvents() {
	a.events = nil
}

func (a *Assignment) checkLeaseHolder(action string, want Status, partnerID string) error {
	if a.status != want {
		return errs.NewInvalidTransitionError(action, a.status.String())
	}
	if a.assignedTo == nil || *a.assignedTo != strings.TrimSpace(partnerID) {
		return errs.NewInvalidTransitionErrorWithCause(action, a.status.String(), ErrNotLeaseHolder)
	}
	return nil
}

// resolve appends the closing entry of the open attempt.
func (a *Assignment) resolve(outcome Outcome, reason string, now time.Time) {
	a.history = append(a.history, HistoryEntry{
		Attempt:   a.currentAttempt,
		PartnerID: *a.assignedTo,
		Outcome:   outcome,
		At:        now,
		Reason:    reason,
	})
}

func (a *Assignment) release() {
	a.assignedTo = nil
	a.timeoutAt = nil
}

func (a *Assignment) transition(to Status, partnerID string, now time.Time) {
	a.events = append(a.events, StatusChanged{
		EventID:    kernel.NewUUID(),
		OrderID:    a.orderID,
		PartnerID:  partnerID,
		From:       a.status,
		To:         to,
		OccurredAt: now,
	})
	a.status = to
	a.updatedAt = now
}

func (a *Assignment) checkInvariants() error {
	var errList []error

	if a.status.HoldsPartner() != (a.assignedTo != nil) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"assignedTo is invalid",
			fmt.Errorf("status %s does not match partner presence", a.status),
		))
	}
	if (a.status == Assigned) != (a.timeoutAt != nil) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"timeoutAt is invalid",
			fmt.Errorf("timeoutAt must be set only while %s", Assigned),
		))
	}
	if a.currentAttempt < 0 || a.currentAttempt > a.maxAttempts {
		errList = append(errList, errs.NewValueIsOutOfRangeError("currentAttempt", a.currentAttempt, 0, a.maxAttempts))
	}
	if err := validateHistory(a.history); err != nil {
		errList = append(errList, err)
	} else {
		errList = append(errList, a.checkOpenAttempt())
	}

	return errors.Join(errList...)
}

func (a *Assignment) checkOpenAttempt() error {
	attempts := foldAttempts(a.history)
	if len(attempts) != a.currentAttempt {
		return errs.NewValueIsInvalidErrorWithCause(
			"currentAttempt is invalid",
			fmt.Errorf("%d attempts recorded, %d expected", len(attempts), a.currentAttempt),
		)
	}

	var open *Attempt
	for i := range attempts {
		if attempts[i].IsOpen() {
			open = &attempts[i]
		}
	}
	switch {
	case a.status == Assigned && (open == nil || a.assignedTo == nil || open.PartnerID != *a.assignedTo):
		return errs.NewValueIsInvalidErrorWithCause("history is invalid", errors.New("assigned without a matching open lease"))
	case a.status != Assigned && open != nil:
		return errs.NewValueIsInvalidErrorWithCause("history is invalid", fmt.Errorf("open lease while %s", a.status))
	}
	return nil
}

func (a *Assignment) setIDs(orderID, customerID, restaurantID string) error {
	var errList []error
	if a.orderID = strings.TrimSpace(orderID); a.orderID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("orderId"))
	}
	if a.customerID = strings.TrimSpace(customerID); a.customerID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("customerId"))
	}
	if a.restaurantID = strings.TrimSpace(restaurantID); a.restaurantID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("restaurantId"))
	}
	return errors.Join(errList...)
}

func (a *Assignment) setLocations(restaurant, customer kernel.Location) error {
	if err := errors.Join(restaurant.Validate(), customer.Validate()); err != nil {
		return err
	}
	a.restaurantLocation = restaurant
	a.customerLocation = customer
	return nil
}

func (a *Assignment) setRadius(radiusKm float64) error {
	if math.IsNaN(radiusKm) || radiusKm <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("assignmentRadius is invalid", fmt.Errorf("%v is not greater than 0", radiusKm))
	}
	a.radiusKm = radiusKm
	return nil
}

func (a *Assignment) setMaxAttempts(maxAttempts int) error {
	if maxAttempts <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("maxAssignmentAttempts is invalid", fmt.Errorf("%d is not greater than 0", maxAttempts))
	}
	a.maxAttempts = maxAttempts
	return nil
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
