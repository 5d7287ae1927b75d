package models

import "time"

type SentReminderStatus string

const (
	SentReminderStatusStarted SentReminderStatus = "STARTED"
	SentReminderStatusSent    SentReminderStatus = "SENT"
	SentReminderStatusFailed  SentReminderStatus = "FAILED"
)

// SentReminder is the durable dedup ledger for reminder dispatch. The level
// classification itself is stateless; this ledger only keeps a given level
// from being dispatched twice for the same invoice across re-runs.
// Unique constraint: (invoice_id, level).
type SentReminder struct {
	ID        int                `gorm:"primary_key" json:"id"`
	InvoiceId int                `gorm:"not null;index:uniq_reminder,unique,priority:1" json:"invoice_id"`
	Level     ReminderLevel      `gorm:"size:30;not null;index:uniq_reminder,unique,priority:2" json:"level"`
	Status    SentReminderStatus `gorm:"size:20;not null;index" json:"status"`
	LastError *string            `gorm:"type:text" json:"last_error"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}
