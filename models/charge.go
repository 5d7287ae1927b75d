package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/shopspring/decimal"
)

// Charge is a recurring property cost entered by the owner. Only charges
// flagged rebillable are passed through to the tenant via provisions and the
// annual regularization.
type Charge struct {
	ID          int               `gorm:"primary_key" json:"id"`
	PropertyId  int               `gorm:"index;not null" json:"property_id" binding:"required"`
	Label       string            `gorm:"size:255;not null" json:"label" binding:"required"`
	Amount      decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"amount" binding:"required"`
	Periodicity ChargePeriodicity `gorm:"size:20;not null" json:"periodicity" binding:"required"`
	Rebillable  *bool             `gorm:"not null;default:false" json:"rebillable"`
	CreatedAt   time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *Charge) IsRebillable() bool {
	return c.Rebillable != nil && *c.Rebillable
}

func GetChargesByProperty(ctx context.Context, propertyId int) ([]Charge, error) {
	db := config.GetDB()
	var charges []Charge
	if err := db.WithContext(ctx).
		Where("property_id = ?", propertyId).
		Order("id ASC").
		Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}
