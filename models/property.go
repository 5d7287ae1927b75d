package models

import (
	"strings"
	"time"
)

type Property struct {
	ID           int       `gorm:"primary_key" json:"id"`
	OwnerUserId  int       `gorm:"index;not null" json:"owner_user_id" binding:"required"`
	AddressLine1 string    `gorm:"size:255;not null" json:"address_line1" binding:"required"`
	AddressLine2 string    `gorm:"size:255;default:null" json:"address_line2"`
	PostalCode   string    `gorm:"size:20" json:"postal_code"`
	City         string    `gorm:"size:100" json:"city"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Address returns the single-line display address used in reminders and
// statements.
func (p *Property) Address() string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(p.AddressLine1); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(p.AddressLine2); s != "" {
		parts = append(parts, s)
	}
	cityLine := strings.TrimSpace(strings.TrimSpace(p.PostalCode) + " " + strings.TrimSpace(p.City))
	if cityLine != "" {
		parts = append(parts, cityLine)
	}
	return strings.Join(parts, ", ")
}
