package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Lease struct {
	ID                int             `gorm:"primary_key" json:"id"`
	PropertyId        int             `gorm:"index;not null" json:"property_id" binding:"required"`
	LeaseType         LeaseType       `gorm:"type:enum('vide','meuble','mobilite');not null;default:'vide'" json:"lease_type"`
	Status            LeaseStatus     `gorm:"type:enum('active','notice','ended');index;not null;default:'active'" json:"status"`
	MonthlyRent       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"monthly_rent"`
	MonthlyProvisions decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"monthly_provisions"`
	StartDate         time.Time       `gorm:"not null" json:"start_date" binding:"required"`
	EndDate           *time.Time      `gorm:"default:null" json:"end_date"`
	Property          *Property       `gorm:"foreignKey:PropertyId" json:"property,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// LeaseSigner links a profile to a lease with its contractual role. The
// principal tenant signer is the reminder recipient.
type LeaseSigner struct {
	ID        int        `gorm:"primary_key" json:"id"`
	LeaseId   int        `gorm:"index;not null" json:"lease_id" binding:"required"`
	ProfileId int        `gorm:"index;not null" json:"profile_id" binding:"required"`
	Role      SignerRole `gorm:"type:enum('locataire_principal','locataire_secondaire','garant','proprietaire');not null" json:"role"`
	Profile   *Profile   `gorm:"foreignKey:ProfileId" json:"profile,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func GetLeaseById(ctx context.Context, leaseId int) (*Lease, error) {
	db := config.GetDB()
	var lease Lease
	if err := db.WithContext(ctx).Preload("Property").Where("id = ?", leaseId).First(&lease).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &lease, nil
}

// GetActiveLeases returns every lease eligible for batch reconciliation and
// delinquency scanning.
func GetActiveLeases(ctx context.Context) ([]Lease, error) {
	db := config.GetDB()
	var leases []Lease
	if err := db.WithContext(ctx).Preload("Property").
		Where("status = ?", LeaseStatusActive).
		Order("id ASC").
		Find(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

// GetSignersByLease loads signers (with profiles) for the given leases,
// grouped by lease id.
func GetSignersByLease(ctx context.Context, leaseIds []int) (map[int][]LeaseSigner, error) {
	signersByLease := make(map[int][]LeaseSigner, len(leaseIds))
	if len(leaseIds) == 0 {
		return signersByLease, nil
	}
	db := config.GetDB()
	var signers []LeaseSigner
	if err := db.WithContext(ctx).Preload("Profile").
		Where("lease_id IN ?", leaseIds).
		Find(&signers).Error; err != nil {
		return nil, err
	}
	for _, signer := range signers {
		signersByLease[signer.LeaseId] = append(signersByLease[signer.LeaseId], signer)
	}
	return signersByLease, nil
}
