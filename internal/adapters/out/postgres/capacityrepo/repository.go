package capacityrepo

import (
	"context"

	"dispatch/internal/core/domain/model/partner"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ ports.CapacityLedger = (*GormCapacityLedger)(nil)

// GormCapacityLedger implements ports.CapacityLedger using GORM.
type GormCapacityLedger struct {
	db *gorm.DB
}

// NewGormCapacityLedger creates a ledger bound to db, which may be a transaction.
func NewGormCapacityLedger(db *gorm.DB) *GormCapacityLedger {
	return &GormCapacityLedger{db: db}
}

// Reserve creates the row on first use, refreshes the ceiling when
// maxConcurrentOrders is positive and then appends orderID only while
// load < ceiling. A zero row count means the order is already held or the
// partner is full.
func (l *GormCapacityLedger) Reserve(ctx context.Context, partnerID, orderID string, maxConcurrentOrders int) error {
	if partnerID == "" {
		return errs.NewValueIsRequiredError("partnerId")
	}
	if orderID == "" {
		return errs.NewValueIsRequiredError("orderId")
	}
	db := l.db.WithContext(ctx)

	onConflict := clause.OnConflict{Columns: []clause.Column{{Name: "partner_id"}}, DoNothing: true}
	if maxConcurrentOrders > 0 {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "partner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"max_concurrent_orders"}),
		}
	}
	row := CapacityDTO{
		PartnerID:           partnerID,
		MaxConcurrentOrders: max(maxConcurrentOrders, 0),
		AssignedOrderIDs:    []string{},
	}
	if err := db.Clauses(onConflict).Create(&row).Error; err != nil {
		return err
	}

	result := db.Model(&CapacityDTO{}).
		Where("partner_id = ? AND current_load < max_concurrent_orders AND NOT (? = ANY(assigned_order_ids))",
			partnerID, orderID).
		Updates(map[string]any{
			"assigned_order_ids": gorm.Expr("array_append(assigned_order_ids, ?)", orderID),
			"current_load":       gorm.Expr("current_load + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}

	held, err := l.holds(ctx, partnerID, orderID)
	if err != nil {
		return err
	}
	if held {
		return nil
	}
	return ports.ErrCapacityExceeded
}

// Release removes orderID from the partner's set and clears it as the active order.
func (l *GormCapacityLedger) Release(ctx context.Context, partnerID, orderID string) error {
	return l.db.WithContext(ctx).
		Model(&CapacityDTO{}).
		Where("partner_id = ? AND ? = ANY(assigned_order_ids)", partnerID, orderID).
		Updates(map[string]any{
			"assigned_order_ids": gorm.Expr("array_remove(assigned_order_ids, ?)", orderID),
			"current_load":       gorm.Expr("cardinality(array_remove(assigned_order_ids, ?))", orderID),
			"active_order_id": gorm.Expr(
				"CASE WHEN active_order_id = ? THEN NULL ELSE active_order_id END", orderID),
		}).Error
}

// Activate sets the partner's active order when the order is held.
func (l *GormCapacityLedger) Activate(ctx context.Context, partnerID, orderID string) error {
	return l.db.WithContext(ctx).
		Model(&CapacityDTO{}).
		Where("partner_id = ? AND ? = ANY(assigned_order_ids)", partnerID, orderID).
		Update("active_order_id", orderID).Error
}

// Loads returns the rows of the requested partners.
func (l *GormCapacityLedger) Loads(ctx context.Context, partnerIDs []string) (map[string]partner.Capacity, error) {
	loads := make(map[string]partner.Capacity, len(partnerIDs))
	if len(partnerIDs) == 0 {
		return loads, nil
	}

	var dtos []CapacityDTO
	if err := l.db.WithContext(ctx).Where("partner_id IN ?", partnerIDs).Find(&dtos).Error; err != nil {
		return nil, err
	}
	for _, dto := range dtos {
		loads[dto.PartnerID] = toDomain(dto)
	}
	return loads, nil
}

// All returns every row ordered by partner, locked for update when called in a
// transaction so reconciliation does not race reservations.
func (l *GormCapacityLedger) All(ctx context.Context) ([]partner.Capacity, error) {
	var dtos []CapacityDTO
	err := l.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("partner_id").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	rows := make([]partner.Capacity, 0, len(dtos))
	for _, dto := range dtos {
		rows = append(rows, toDomain(dto))
	}
	return rows, nil
}

// Reset overwrites a row, deriving load from the order set.
func (l *GormCapacityLedger) Reset(ctx context.Context, capacity partner.Capacity) error {
	if capacity.PartnerID == "" {
		return errs.NewValueIsRequiredError("partnerId")
	}
	dto := fromDomain(capacity)
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "partner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"current_load", "max_concurrent_orders", "assigned_order_ids", "active_order_id", "updated_at",
			}),
		}).
		Create(&dto).Error
}

func (l *GormCapacityLedger) holds(ctx context.Context, partnerID, orderID string) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&CapacityDTO{}).
		Where("partner_id = ? AND ? = ANY(assigned_order_ids)", partnerID, orderID).
		Count(&count).Error
	return count > 0, err
}
