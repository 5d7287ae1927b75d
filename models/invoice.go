package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/shopspring/decimal"
)

// Invoice is a rent billing document ("avis d'echeance"). Everything except
// paid is eligible for delinquency scanning once sufficiently overdue.
type Invoice struct {
	ID            int             `gorm:"primary_key" json:"id"`
	LeaseId       int             `gorm:"index;not null" json:"lease_id" binding:"required"`
	InvoiceNumber string          `gorm:"size:100;not null" json:"invoice_number"`
	PeriodStart   time.Time       `gorm:"not null" json:"period_start" binding:"required"`
	PeriodEnd     time.Time       `gorm:"not null" json:"period_end" binding:"required"`
	DueDate       time.Time       `gorm:"index;not null" json:"due_date" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount" binding:"required"`
	Status        InvoiceStatus   `gorm:"type:enum('draft','sent','late','paid');index;not null;default:'draft'" json:"statut"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// LateInvoice is the computed record handed to the notification dispatcher.
// Never persisted; display fields are denormalized from the lease, its
// principal signer and its property, with placeholders when context is
// missing.
type LateInvoice struct {
	InvoiceId       int             `json:"invoice_id"`
	LeaseId         int             `json:"lease_id"`
	Amount          decimal.Decimal `json:"amount"`
	DueDate         time.Time       `json:"due_date" validate:"required"`
	DaysLate        int             `json:"days_late" validate:"min=1"`
	ReminderLevel   ReminderLevel   `json:"reminder_level"`
	TenantName      string          `json:"tenant_name" validate:"required"`
	TenantEmail     string          `json:"tenant_email"`
	TenantPhone     string          `json:"tenant_phone"`
	PropertyAddress string          `json:"property_address" validate:"required"`
	LeaseType       LeaseType       `json:"lease_type"`
}

// GetOpenInvoices returns non-paid invoices due strictly before the given
// date, oldest due first.
func GetOpenInvoices(ctx context.Context, before time.Time) ([]Invoice, error) {
	db := config.GetDB()
	var invoices []Invoice
	if err := db.WithContext(ctx).
		Where("status <> ? AND due_date < ?", InvoiceStatusPaid, before).
		Order("due_date ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
