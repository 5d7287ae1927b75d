package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Notification is the content contract handed to the dispatcher. Delivery
// (email/SMS) is entirely the dispatcher's job.
type Notification struct {
	Subject        string `json:"subject"`
	Body           string `json:"body"`
	RecipientEmail string `json:"recipient_email"`
	RecipientPhone string `json:"recipient_phone,omitempty"`
}

// Notifier is the external notification dispatcher collaborator.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// OutboxNotifier hands notifications to the dispatcher through the outbox: a
// Reminder.Issued event per notification, delivered downstream after commit.
type OutboxNotifier struct {
	DB *gorm.DB
}

func (n OutboxNotifier) Send(ctx context.Context, notification Notification) error {
	return models.EmitEvent(ctx, n.DB, models.EventTypeReminderIssued, notification)
}

type ReminderError struct {
	InvoiceId int    `json:"invoice_id"`
	Error     string `json:"error"`
}

type ReminderRunSummary struct {
	Detected int             `json:"detected"`
	Sent     int             `json:"sent"`
	Skipped  int             `json:"skipped"`
	Errors   []ReminderError `json:"errors"`
}

// ReminderRunner detects late invoices, renders the reminder for each and
// hands it to the notifier, deduplicating through the sent-reminder ledger.
type ReminderRunner struct {
	DB       *gorm.DB
	Logger   *logrus.Logger
	Notifier Notifier

	// Collaborators below are swapped in tests.
	scan       func(ctx context.Context, now time.Time) ([]models.LateInvoice, error)
	begin      func(ctx context.Context, invoiceId int, level models.ReminderLevel) (bool, error)
	markSent   func(ctx context.Context, invoiceId int, level models.ReminderLevel) error
	markFailed func(ctx context.Context, invoiceId int, level models.ReminderLevel, cause error) error
}

func NewReminderRunner(db *gorm.DB, logger *logrus.Logger, notifier Notifier) *ReminderRunner {
	r := &ReminderRunner{
		DB:       db,
		Logger:   logger,
		Notifier: notifier,
	}
	r.scan = func(ctx context.Context, now time.Time) ([]models.LateInvoice, error) {
		return ScanLateInvoices(ctx, r.DB, now)
	}
	r.begin = func(ctx context.Context, invoiceId int, level models.ReminderLevel) (bool, error) {
		return BeginReminder(r.DB.WithContext(ctx), invoiceId, level)
	}
	r.markSent = func(ctx context.Context, invoiceId int, level models.ReminderLevel) error {
		return MarkReminderSent(r.DB.WithContext(ctx), invoiceId, level)
	}
	r.markFailed = func(ctx context.Context, invoiceId int, level models.ReminderLevel, cause error) error {
		return MarkReminderFailed(r.DB.WithContext(ctx), invoiceId, level, cause)
	}
	return r
}

// Run executes the scan as of now. Per-invoice failures are isolated; the run
// continues.
func (r *ReminderRunner) Run(ctx context.Context, now time.Time) (*ReminderRunSummary, error) {
	lateInvoices, err := r.scan(ctx, now)
	if err != nil {
		return nil, err
	}

	summary := &ReminderRunSummary{
		Detected: len(lateInvoices),
		Errors:   make([]ReminderError, 0),
	}

	for _, inv := range lateInvoices {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		content, err := RenderReminder(inv.ReminderLevel, inv)
		if err != nil {
			config.LogError(r.Logger, "reminderRun.go", "Run", fmt.Sprintf("render invoice %d", inv.InvoiceId), inv, err)
			summary.Errors = append(summary.Errors, ReminderError{InvoiceId: inv.InvoiceId, Error: err.Error()})
			continue
		}

		skip, err := r.begin(ctx, inv.InvoiceId, inv.ReminderLevel)
		if err != nil {
			config.LogError(r.Logger, "reminderRun.go", "Run", fmt.Sprintf("ledger invoice %d", inv.InvoiceId), nil, err)
			summary.Errors = append(summary.Errors, ReminderError{InvoiceId: inv.InvoiceId, Error: err.Error()})
			continue
		}
		if skip {
			summary.Skipped++
			continue
		}

		notification := Notification{
			Subject:        content.Subject,
			Body:           content.Body,
			RecipientEmail: inv.TenantEmail,
			RecipientPhone: inv.TenantPhone,
		}
		if err := r.Notifier.Send(ctx, notification); err != nil {
			_ = r.markFailed(ctx, inv.InvoiceId, inv.ReminderLevel, err)
			config.LogError(r.Logger, "reminderRun.go", "Run", fmt.Sprintf("dispatch invoice %d", inv.InvoiceId), nil, err)
			summary.Errors = append(summary.Errors, ReminderError{InvoiceId: inv.InvoiceId, Error: err.Error()})
			continue
		}
		if err := r.markSent(ctx, inv.InvoiceId, inv.ReminderLevel); err != nil {
			// The notification is already on its way; a ledger update
			// failure only risks a duplicate on the next run.
			config.LogError(r.Logger, "reminderRun.go", "Run", fmt.Sprintf("ledger mark sent invoice %d", inv.InvoiceId), nil, err)
		}
		summary.Sent++
	}

	return summary, nil
}

// RunReminderScan is the scheduler/HTTP entrypoint.
func RunReminderScan(ctx context.Context, db *gorm.DB, logger *logrus.Logger, notifier Notifier, now time.Time) (*ReminderRunSummary, error) {
	return NewReminderRunner(db, logger, notifier).Run(ctx, now)
}
