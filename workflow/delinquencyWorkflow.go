package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

// Reminders start at 5 days late; below that an invoice is merely overdue.
const delinquencyThresholdDays = 5

// Placeholder display values when an invoice's lease context cannot be
// resolved. Missing denormalized context degrades the record, it never fails
// the scan.
const (
	placeholderTenantName      = "Locataire"
	placeholderPropertyAddress = "Adresse inconnue"
)

// DaysLate returns whole days elapsed since the due date, zero when not past
// due.
func DaysLate(dueDate time.Time, now time.Time) int {
	if !now.After(dueDate) {
		return 0
	}
	return int(now.Sub(dueDate).Hours() / 24)
}

// ClassifyReminderLevel maps days late to the escalation level. Pure and
// monotonic; recomputed on every run, it never reads prior reminder history.
func ClassifyReminderLevel(daysLate int) models.ReminderLevel {
	switch {
	case daysLate >= 30:
		return models.ReminderLevelMiseEnDemeure
	case daysLate >= 15:
		return models.ReminderLevelFormelle
	default:
		return models.ReminderLevelAmiable
	}
}

// DetectLateInvoices scans invoices against now and produces the late-invoice
// records handed to the notification dispatcher, most overdue first. Inputs
// are never mutated.
func DetectLateInvoices(invoices []models.Invoice, leases []models.Lease, signersByLease map[int][]models.LeaseSigner, now time.Time) []models.LateInvoice {
	leasesById := make(map[int]models.Lease, len(leases))
	for _, lease := range leases {
		leasesById[lease.ID] = lease
	}

	late := make([]models.LateInvoice, 0, len(invoices))
	for _, invoice := range invoices {
		if invoice.Status == models.InvoiceStatusPaid {
			continue
		}
		daysLate := DaysLate(invoice.DueDate, now)
		if daysLate < delinquencyThresholdDays {
			continue
		}

		record := models.LateInvoice{
			InvoiceId:       invoice.ID,
			LeaseId:         invoice.LeaseId,
			Amount:          invoice.Amount,
			DueDate:         invoice.DueDate,
			DaysLate:        daysLate,
			ReminderLevel:   ClassifyReminderLevel(daysLate),
			TenantName:      placeholderTenantName,
			PropertyAddress: placeholderPropertyAddress,
		}

		if lease, ok := leasesById[invoice.LeaseId]; ok {
			record.LeaseType = lease.LeaseType
			if lease.Property != nil {
				if addr := lease.Property.Address(); addr != "" {
					record.PropertyAddress = addr
				}
			}
			if signer := principalSigner(signersByLease[lease.ID]); signer != nil && signer.Profile != nil {
				if name := signer.Profile.DisplayName(); name != "" {
					record.TenantName = name
				}
				record.TenantEmail = signer.Profile.Email
				record.TenantPhone = utils.NormalizePhoneNumber(signer.Profile.Phone, "FR")
			}
		}

		late = append(late, record)
	}

	// Most overdue first is part of the output contract; ties keep a stable
	// order by invoice id.
	sort.Slice(late, func(i, j int) bool {
		if late[i].DaysLate != late[j].DaysLate {
			return late[i].DaysLate > late[j].DaysLate
		}
		return late[i].InvoiceId < late[j].InvoiceId
	})
	return late
}

func principalSigner(signers []models.LeaseSigner) *models.LeaseSigner {
	for i := range signers {
		if signers[i].Role == models.SignerRolePrincipalTenant {
			return &signers[i]
		}
	}
	return nil
}

// ScanLateInvoices loads the invoice/lease dataset and runs the detector.
func ScanLateInvoices(ctx context.Context, db *gorm.DB, now time.Time) ([]models.LateInvoice, error) {
	invoices, err := models.GetOpenInvoices(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%w: loading open invoices: %v", utils.ErrorStorage, err)
	}
	leases, err := models.GetActiveLeases(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading active leases: %v", utils.ErrorStorage, err)
	}
	leaseIds := make([]int, 0, len(leases))
	for _, lease := range leases {
		leaseIds = append(leaseIds, lease.ID)
	}
	signersByLease, err := models.GetSignersByLease(ctx, leaseIds)
	if err != nil {
		return nil, fmt.Errorf("%w: loading lease signers: %v", utils.ErrorStorage, err)
	}
	return DetectLateInvoices(invoices, leases, signersByLease, now), nil
}
