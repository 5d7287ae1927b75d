package workflow

import (
	"errors"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/mmdatafocus/rentals_backend/models"
	"gorm.io/gorm"
)

func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// BeginReminder inserts STARTED for (invoice, level). If SENT already exists,
// returns (true, nil) meaning "skip safely": this level was already
// dispatched for this invoice on an earlier run.
func BeginReminder(tx *gorm.DB, invoiceId int, level models.ReminderLevel) (skip bool, err error) {
	entry := models.SentReminder{
		InvoiceId: invoiceId,
		Level:     level,
		Status:    models.SentReminderStatusStarted,
	}
	if err := tx.Create(&entry).Error; err == nil {
		return false, nil
	} else if !isDuplicateKeyErr(err) {
		return false, err
	}

	var existing models.SentReminder
	if err := tx.Where("invoice_id = ? AND level = ?", invoiceId, level).
		First(&existing).Error; err != nil {
		return false, err
	}

	switch existing.Status {
	case models.SentReminderStatusSent:
		return true, nil
	default:
		// STARTED from a crashed run or FAILED: retry by reusing the row.
		return false, tx.Model(&models.SentReminder{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{"status": models.SentReminderStatusStarted, "last_error": nil}).Error
	}
}

func MarkReminderSent(tx *gorm.DB, invoiceId int, level models.ReminderLevel) error {
	return tx.Model(&models.SentReminder{}).
		Where("invoice_id = ? AND level = ?", invoiceId, level).
		Updates(map[string]interface{}{"status": models.SentReminderStatusSent, "last_error": nil}).Error
}

func MarkReminderFailed(tx *gorm.DB, invoiceId int, level models.ReminderLevel, err error) error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return tx.Model(&models.SentReminder{}).
		Where("invoice_id = ? AND level = ?", invoiceId, level).
		Updates(map[string]interface{}{"status": models.SentReminderStatusFailed, "last_error": &msg}).Error
}
