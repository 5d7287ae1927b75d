package models

import (
	"fmt"
	"time"

	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reconciliation is the annual charge regularization for one lease. Keyed by
// (lease_id, year); recomputing overwrites, it never appends.
type Reconciliation struct {
	ID              int                  `gorm:"primary_key" json:"id"`
	LeaseId         int                  `gorm:"not null;index:uniq_lease_year,unique,priority:1" json:"lease_id"`
	Year            int                  `gorm:"not null;index:uniq_lease_year,unique,priority:2" json:"year"`
	TotalCharges    decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"total_charges"`
	TotalProvisions decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"total_provisions"`
	Delta           decimal.Decimal      `gorm:"type:decimal(20,2);default:0" json:"delta"`
	Status          ReconciliationStatus `gorm:"type:enum('calculated','settled');not null;default:'calculated'" json:"status"`
	CreatedAt       time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

// UpsertReconciliation writes the computed record for (lease, year),
// overwriting any prior row for the same key. Write failures are StorageError.
func UpsertReconciliation(tx *gorm.DB, rec *Reconciliation) error {
	var existing Reconciliation
	err := tx.Where("lease_id = ? AND year = ?", rec.LeaseId, rec.Year).First(&existing).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return fmt.Errorf("%w: lookup reconciliation lease=%d year=%d: %v", utils.ErrorStorage, rec.LeaseId, rec.Year, err)
	}
	if err == gorm.ErrRecordNotFound {
		rec.Status = ReconciliationStatusCalculated
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("%w: insert reconciliation lease=%d year=%d: %v", utils.ErrorStorage, rec.LeaseId, rec.Year, err)
		}
		return nil
	}

	if err := tx.Model(&Reconciliation{}).Where("id = ?", existing.ID).Updates(map[string]interface{}{
		"total_charges":    rec.TotalCharges,
		"total_provisions": rec.TotalProvisions,
		"delta":            rec.Delta,
		"status":           ReconciliationStatusCalculated,
	}).Error; err != nil {
		return fmt.Errorf("%w: update reconciliation lease=%d year=%d: %v", utils.ErrorStorage, rec.LeaseId, rec.Year, err)
	}
	rec.ID = existing.ID
	rec.Status = ReconciliationStatusCalculated
	rec.CreatedAt = existing.CreatedAt
	return nil
}

// GetReconciliation loads the record for (lease, year).
func GetReconciliation(tx *gorm.DB, leaseId int, year int) (*Reconciliation, error) {
	var rec Reconciliation
	if err := tx.Where("lease_id = ? AND year = ?", leaseId, year).First(&rec).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &rec, nil
}
