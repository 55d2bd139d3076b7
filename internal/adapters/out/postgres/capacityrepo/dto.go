// Package capacityrepo stores the partner capacity ledger in PostgreSQL.
// Every mutation is a single conditional UPDATE so concurrent reservations for
// the same partner serialize on the row and load never passes the ceiling.
package capacityrepo

import (
	"slices"
	"time"

	"dispatch/internal/core/domain/model/partner"

	"github.com/lib/pq"
)

// CapacityDTO is one ledger row.
type CapacityDTO struct {
	PartnerID           string         `gorm:"type:varchar(64);primaryKey"`
	CurrentLoad         int            `gorm:"type:int;not null;default:0"`
	MaxConcurrentOrders int            `gorm:"type:int;not null;default:0"`
	AssignedOrderIDs    pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	ActiveOrderID       *string        `gorm:"type:varchar(64)"`
	UpdatedAt           time.Time
}

// TableName overrides GORM's default "capacity_dtos".
func (CapacityDTO) TableName() string {
	return "partner_capacity"
}

func fromDomain(c partner.Capacity) CapacityDTO {
	ids := pq.StringArray(slices.Clone(c.AssignedOrderIDs))
	if ids == nil {
		ids = pq.StringArray{}
	}
	return CapacityDTO{
		PartnerID:           c.PartnerID,
		CurrentLoad:         len(ids),
		MaxConcurrentOrders: c.MaxConcurrentOrders,
		AssignedOrderIDs:    ids,
		ActiveOrderID:       c.ActiveOrderID,
	}
}

func toDomain(dto CapacityDTO) partner.Capacity {
	return partner.Capacity{
		PartnerID:           dto.PartnerID,
		CurrentLoad:         dto.CurrentLoad,
		MaxConcurrentOrders: dto.MaxConcurrentOrders,
		AssignedOrderIDs:    []string(dto.AssignedOrderIDs),
		ActiveOrderID:       dto.ActiveOrderID,
	}
}
