package assignmentrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	_ ports.AssignmentRepository = (*GormAssignmentRepository)(nil)
	_ ports.AssignmentReader     = (*GormAssignmentRepository)(nil)
)

// listOrder is shared by the sweeper and retry scans: highest priority first,
// then the record that has waited longest.
const listOrder = "priority DESC, updated_at ASC, order_id ASC"

// GormAssignmentRepository implements ports.AssignmentRepository using GORM.
type GormAssignmentRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(aggregate *assignment.Assignment)
}

type noopTracker struct{}

func (noopTracker) TrackAggregate(*assignment.Assignment) {}

// NewGormAssignmentRepository creates a repository bound to db. A nil tracker
// is allowed for read-only use.
func NewGormAssignmentRepository(db *gorm.DB, tracker aggregateTracker) *GormAssignmentRepository {
	if tracker == nil {
		tracker = noopTracker{}
	}
	return &GormAssignmentRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a new assignment with version 1 together with its history.
func (r *GormAssignmentRepository) Add(ctx context.Context, aggregate *assignment.Assignment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	dto.Version = 1
	dto.History = historyFromDomain(aggregate.OrderID(), aggregate.History())
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if isUniqueViolation(err) {
			return errs.NewObjectAlreadyExistsError("orderId", aggregate.OrderID(), err)
		}
		return err
	}

	aggregate.MarkPersisted(1)
	r.tracker.TrackAggregate(aggregate)
	return nil
}

// Update writes the mutable columns only if the stored version still equals
// aggregate.Version(), then appends the history recorded since the last load.
func (r *GormAssignmentRepository) Update(ctx context.Context, aggregate *assignment.Assignment) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	next := aggregate.Version() + 1
	result := db.Model(&AssignmentDTO{}).
		Where("order_id = ? AND version = ?", aggregate.OrderID(), aggregate.Version()).
		Updates(map[string]any{
			"status":          aggregate.Status().String(),
			"assigned_to":     aggregate.AssignedTo(),
			"timeout_at":      aggregate.TimeoutAt(),
			"current_attempt": aggregate.CurrentAttempt(),
			"radius_km":       aggregate.RadiusKm(),
			"candidates":      datatypes.NewJSONType(aggregate.Candidates()),
			"version":         next,
			"updated_at":      aggregate.UpdatedAt(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrStale(ctx, aggregate.OrderID(), aggregate.Version())
	}

	if pending := aggregate.PendingHistory(); len(pending) > 0 {
		rows := historyFromDomain(aggregate.OrderID(), pending)
		if err := db.Create(&rows).Error; err != nil {
			return err
		}
	}

	aggregate.MarkPersisted(next)
	r.tracker.TrackAggregate(aggregate)
	return nil
}

// Get retrieves the assignment of an order with its full history.
func (r *GormAssignmentRepository) Get(ctx context.Context, orderID string) (*assignment.Assignment, error) {
	var dto AssignmentDTO
	err := r.withHistory(ctx).First(&dto, "order_id = ?", orderID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundErrorWithCause("orderId", orderID, err)
		}
		return nil, err
	}
	return toDomain(dto)
}

// ListExpired returns assigned records whose lease ended at or before now.
func (r *GormAssignmentRepository) ListExpired(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*assignment.Assignment, error) {
	return r.find(r.withHistory(ctx).
		Where("status = ? AND timeout_at <= ?", assignment.Assigned.String(), now).
		Order(listOrder).
		Limit(limit))
}

// ListPendingIdle returns pending records untouched since idleSince.
func (r *GormAssignmentRepository) ListPendingIdle(
	ctx context.Context,
	idleSince time.Time,
	limit int,
) ([]*assignment.Assignment, error) {
	return r.find(r.withHistory(ctx).
		Where("status = ? AND updated_at <= ?", assignment.Pending.String(), idleSince).
		Order(listOrder).
		Limit(limit))
}

// ListHoldings projects every record that holds a partner, without loading history.
func (r *GormAssignmentRepository) ListHoldings(ctx context.Context) ([]ports.Holding, error) {
	var rows []struct {
		OrderID    string
		AssignedTo string
		Status     string
	}
	err := r.db.WithContext(ctx).
		Model(&AssignmentDTO{}).
		Select("order_id", "assigned_to", "status").
		Where("status IN ? AND assigned_to IS NOT NULL", statusStrings(assignment.ActiveStatuses())).
		Order("order_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	holdings := make([]ports.Holding, 0, len(rows))
	for _, row := range rows {
		status, err := assignment.ParseStatus(row.Status)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, ports.Holding{OrderID: row.OrderID, PartnerID: row.AssignedTo, Status: status})
	}
	return holdings, nil
}

// ListByPartner returns the partner's records in the given statuses, oldest first.
func (r *GormAssignmentRepository) ListByPartner(
	ctx context.Context,
	partnerID string,
	statuses []assignment.Status,
) ([]*assignment.Assignment, error) {
	return r.find(r.withHistory(ctx).
		Where("assigned_to = ? AND status IN ?", partnerID, statusStrings(statuses)).
		Order("created_at ASC, order_id ASC"))
}

func (r *GormAssignmentRepository) withHistory(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("History", func(db *gorm.DB) *gorm.DB {
		return db.Order("seq")
	})
}

func (r *GormAssignmentRepository) find(query *gorm.DB) ([]*assignment.Assignment, error) {
	var dtos []AssignmentDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	result := make([]*assignment.Assignment, 0, len(dtos))
	for _, dto := range dtos {
		a, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}

// missingOrStale tells a lost version race from an unknown order after an
// update matched no row.
func (r *GormAssignmentRepository) missingOrStale(ctx context.Context, orderID string, version int) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&AssignmentDTO{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("orderId", orderID)
	}
	return errs.NewVersionIsInvalidError("version", fmt.Errorf("order %s is no longer at version %d", orderID, version))
}

func statusStrings(statuses []assignment.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, s.String())
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
