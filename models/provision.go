package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/shopspring/decimal"
)

// Provision is the monthly advance collected from the tenant against the
// annual charges. Month is stored as the first day of the calendar month.
type Provision struct {
	ID        int             `gorm:"primary_key" json:"id"`
	LeaseId   int             `gorm:"index;not null;index:idx_provision_lease_month,priority:1" json:"lease_id" binding:"required"`
	Month     time.Time       `gorm:"not null;index:idx_provision_lease_month,priority:2" json:"month" binding:"required"`
	Amount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount" binding:"required"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// GetProvisionsForYear returns the lease's provisions whose month falls within
// [year-01-01, year-12-31] inclusive.
func GetProvisionsForYear(ctx context.Context, leaseId int, year int) ([]Provision, error) {
	db := config.GetDB()
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	nextYearStart := yearStart.AddDate(1, 0, 0)

	var provisions []Provision
	if err := db.WithContext(ctx).
		Where("lease_id = ? AND month >= ? AND month < ?", leaseId, yearStart, nextYearStart).
		Order("month ASC").
		Find(&provisions).Error; err != nil {
		return nil, err
	}
	return provisions, nil
}
