package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

// Profile holds the person-level data shared by tenants, owners and guarantors.
// Lease signers and users point at profiles.
type Profile struct {
	ID        int       `gorm:"primary_key" json:"id"`
	FirstName string    `gorm:"size:100" json:"first_name"`
	LastName  string    `gorm:"size:100" json:"last_name"`
	Email     string    `gorm:"size:255;index" json:"email"`
	Phone     string    `gorm:"size:50" json:"phone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *Profile) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

func GetProfileById(ctx context.Context, id int) (*Profile, error) {
	db := config.GetDB()
	var profile Profile
	if err := db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &profile, nil
}
