// Package assignmentrepo persists assignment aggregates with GORM. One row per
// order holds the current state; the attempt log lives in an append-only
// child table that is only ever inserted into.
package assignmentrepo

import (
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"

	"gorm.io/datatypes"
)

// AssignmentDTO represents the database structure for persisting assignment aggregates.
type AssignmentDTO struct {
	OrderID            string      `gorm:"type:varchar(64);primaryKey"`
	CustomerID         string      `gorm:"type:varchar(64);not null"`
	RestaurantID       string      `gorm:"type:varchar(64);not null"`
	RestaurantLocation LocationDTO `gorm:"embedded;embeddedPrefix:restaurant_"`
	CustomerLocation   LocationDTO `gorm:"embedded;embeddedPrefix:customer_"`
	Summary            SummaryDTO  `gorm:"embedded;embeddedPrefix:summary_"`

	Status         string     `gorm:"type:varchar(16);not null;index:idx_assignments_status_timeout,priority:1"`
	AssignedTo     *string    `gorm:"type:varchar(64);index"`
	TimeoutAt      *time.Time `gorm:"index:idx_assignments_status_timeout,priority:2"`
	Priority       int        `gorm:"type:int;not null"`
	CurrentAttempt int        `gorm:"type:int;not null"`
	MaxAttempts    int        `gorm:"type:int;not null"`
	RadiusKm       float64    `gorm:"type:double precision;not null"`

	Candidates datatypes.JSONType[[]assignment.Candidate] `gorm:"type:jsonb"`
	History    []HistoryEntryDTO                          `gorm:"foreignKey:OrderID;references:OrderID;constraint:OnDelete:CASCADE"`

	Version   int       `gorm:"type:int;not null"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName overrides GORM's default "assignment_dtos".
func (AssignmentDTO) TableName() string {
	return "assignments"
}

// LocationDTO is an embedded coordinate pair with its display address.
type LocationDTO struct {
	Latitude  float64 `gorm:"type:double precision"`
	Longitude float64 `gorm:"type:double precision"`
	Address   string  `gorm:"type:text"`
}

// SummaryDTO is the embedded order summary shown with an offer.
type SummaryDTO struct {
	TotalAmount                     float64 `gorm:"type:double precision"`
	ItemCount                       int     `gorm:"type:int"`
	SpecialInstructions             string  `gorm:"type:text"`
	EstimatedPreparationTimeMinutes *int    `gorm:"type:int"`
}

// HistoryEntryDTO is one row of the attempt log. Seq keeps insertion order.
type HistoryEntryDTO struct {
	Seq       int64     `gorm:"primaryKey;autoIncrement"`
	OrderID   string    `gorm:"type:varchar(64);not null;index"`
	Attempt   int       `gorm:"type:int;not null"`
	PartnerID string    `gorm:"type:varchar(64);not null"`
	Outcome   string    `gorm:"type:varchar(16);not null"`
	At        time.Time `gorm:"not null"`
	Reason    string    `gorm:"type:text"`
}

// TableName overrides GORM's default "history_entry_dtos".
func (HistoryEntryDTO) TableName() string {
	return "assignment_history"
}

func fromDomain(a *assignment.Assignment) AssignmentDTO {
	return AssignmentDTO{
		OrderID:            a.OrderID(),
		CustomerID:         a.CustomerID(),
		RestaurantID:       a.RestaurantID(),
		RestaurantLocation: locationFromDomain(a.RestaurantLocation()),
		CustomerLocation:   locationFromDomain(a.CustomerLocation()),
		Summary: SummaryDTO{
			TotalAmount:                     a.Summary().TotalAmount,
			ItemCount:                       a.Summary().ItemCount,
			SpecialInstructions:             a.Summary().SpecialInstructions,
			EstimatedPreparationTimeMinutes: a.Summary().EstimatedPreparationTimeMinutes,
		},
		Status:         a.Status().String(),
		AssignedTo:     a.AssignedTo(),
		TimeoutAt:      a.TimeoutAt(),
		Priority:       a.Priority(),
		CurrentAttempt: a.CurrentAttempt(),
		MaxAttempts:    a.MaxAttempts(),
		RadiusKm:       a.RadiusKm(),
		Candidates:     datatypes.NewJSONType(a.Candidates()),
		Version:        a.Version(),
		CreatedAt:      a.CreatedAt(),
		UpdatedAt:      a.UpdatedAt(),
	}
}

func historyFromDomain(orderID string, entries []assignment.HistoryEntry) []HistoryEntryDTO {
	rows := make([]HistoryEntryDTO, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, HistoryEntryDTO{
			OrderID:   orderID,
			Attempt:   e.Attempt,
			PartnerID: e.PartnerID,
			Outcome:   string(e.Outcome),
			At:        e.At,
			Reason:    e.Reason,
		})
	}
	return rows
}

func locationFromDomain(l kernel.Location) LocationDTO {
	return LocationDTO{Latitude: l.Latitude(), Longitude: l.Longitude(), Address: l.Address()}
}

// toDomain rebuilds the aggregate through assignment.Restore, which re-checks
// every invariant of the stored row.
func toDomain(dto AssignmentDTO) (*assignment.Assignment, error) {
	status, err := assignment.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	restaurant, err := locationToDomain(dto.RestaurantLocation)
	if err != nil {
		return nil, err
	}
	customer, err := locationToDomain(dto.CustomerLocation)
	if err != nil {
		return nil, err
	}

	history := make([]assignment.HistoryEntry, 0, len(dto.History))
	for _, h := range dto.History {
		history = append(history, assignment.HistoryEntry{
			Attempt:   h.Attempt,
			PartnerID: h.PartnerID,
			Outcome:   assignment.Outcome(h.Outcome),
			At:        h.At.UTC(),
			Reason:    h.Reason,
		})
	}

	return assignment.Restore(assignment.RestoreParams{
		NewAssignmentParams: assignment.NewAssignmentParams{
			OrderID:            dto.OrderID,
			CustomerID:         dto.CustomerID,
			RestaurantID:       dto.RestaurantID,
			RestaurantLocation: restaurant,
			CustomerLocation:   customer,
			Summary: assignment.OrderSummary{
				TotalAmount:                     dto.Summary.TotalAmount,
				ItemCount:                       dto.Summary.ItemCount,
				SpecialInstructions:             dto.Summary.SpecialInstructions,
				EstimatedPreparationTimeMinutes: dto.Summary.EstimatedPreparationTimeMinutes,
			},
			Priority:    dto.Priority,
			RadiusKm:    dto.RadiusKm,
			MaxAttempts: dto.MaxAttempts,
		},
		Status:         status,
		AssignedTo:     dto.AssignedTo,
		TimeoutAt:      utc(dto.TimeoutAt),
		CurrentAttempt: dto.CurrentAttempt,
		Candidates:     dto.Candidates.Data(),
		History:        history,
		Version:        dto.Version,
		CreatedAt:      dto.CreatedAt.UTC(),
		UpdatedAt:      dto.UpdatedAt.UTC(),
	})
}

func locationToDomain(dto LocationDTO) (kernel.Location, error) {
	loc, err := kernel.NewLocation(dto.Latitude, dto.Longitude)
	if err != nil {
		return kernel.Location{}, err
	}
	return loc.WithAddress(dto.Address), nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
