package workflow

import (
	"testing"
	"time"

	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

var scanDate = time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)

func dueDaysAgo(days int) time.Time {
	return scanDate.AddDate(0, 0, -days)
}

func invoiceDue(id int, leaseId int, daysAgo int, status models.InvoiceStatus) models.Invoice {
	return models.Invoice{
		ID:      id,
		LeaseId: leaseId,
		Amount:  decimal.RequireFromString("750"),
		DueDate: dueDaysAgo(daysAgo),
		Status:  status,
	}
}

func TestClassifyReminderLevelBoundaries(t *testing.T) {
	cases := []struct {
		daysLate int
		want     models.ReminderLevel
	}{
		{5, models.ReminderLevelAmiable},
		{14, models.ReminderLevelAmiable},
		{15, models.ReminderLevelFormelle},
		{29, models.ReminderLevelFormelle},
		{30, models.ReminderLevelMiseEnDemeure},
		{400, models.ReminderLevelMiseEnDemeure},
	}
	for _, tc := range cases {
		if got := ClassifyReminderLevel(tc.daysLate); got != tc.want {
			t.Errorf("ClassifyReminderLevel(%d) = %s, want %s", tc.daysLate, got, tc.want)
		}
	}
}

func TestDaysLate(t *testing.T) {
	if got := DaysLate(dueDaysAgo(10), scanDate); got != 10 {
		t.Fatalf("DaysLate = %d, want 10", got)
	}
	if got := DaysLate(scanDate, scanDate); got != 0 {
		t.Fatalf("not yet due must be 0 days late, got %d", got)
	}
	if got := DaysLate(scanDate.AddDate(0, 0, 3), scanDate); got != 0 {
		t.Fatalf("future due date must be 0 days late, got %d", got)
	}
}

func TestDetectLateInvoicesThreshold(t *testing.T) {
	invoices := []models.Invoice{
		invoiceDue(1, 1, 4, models.InvoiceStatusSent),  // below threshold
		invoiceDue(2, 1, 5, models.InvoiceStatusSent),  // exactly at threshold
		invoiceDue(3, 1, 14, models.InvoiceStatusLate), // amiable upper bound
		invoiceDue(4, 1, 15, models.InvoiceStatusLate), // formelle lower bound
		invoiceDue(5, 1, 30, models.InvoiceStatusLate), // mise en demeure
	}

	late := DetectLateInvoices(invoices, nil, nil, scanDate)

	if len(late) != 4 {
		t.Fatalf("expected 4 late invoices, got %d", len(late))
	}
	byId := make(map[int]models.LateInvoice, len(late))
	for _, inv := range late {
		byId[inv.InvoiceId] = inv
	}
	if _, found := byId[1]; found {
		t.Fatal("invoice 4 days late must not be reported")
	}
	if byId[2].ReminderLevel != models.ReminderLevelAmiable {
		t.Fatalf("5 days late: got %s, want amiable", byId[2].ReminderLevel)
	}
	if byId[3].ReminderLevel != models.ReminderLevelAmiable {
		t.Fatalf("14 days late: got %s, want amiable", byId[3].ReminderLevel)
	}
	if byId[4].ReminderLevel != models.ReminderLevelFormelle {
		t.Fatalf("15 days late: got %s, want formelle", byId[4].ReminderLevel)
	}
	if byId[5].ReminderLevel != models.ReminderLevelMiseEnDemeure {
		t.Fatalf("30 days late: got %s, want mise_en_demeure", byId[5].ReminderLevel)
	}
}

func TestDetectLateInvoicesExcludesPaid(t *testing.T) {
	invoices := []models.Invoice{
		invoiceDue(1, 1, 100, models.InvoiceStatusPaid),
		invoiceDue(2, 1, 100, models.InvoiceStatusLate),
	}

	late := DetectLateInvoices(invoices, nil, nil, scanDate)

	if len(late) != 1 || late[0].InvoiceId != 2 {
		t.Fatalf("a paid invoice must never be reported however old: %+v", late)
	}
}

func TestDetectLateInvoicesSortedMostOverdueFirst(t *testing.T) {
	invoices := []models.Invoice{
		invoiceDue(10, 1, 11, models.InvoiceStatusSent),
		invoiceDue(11, 1, 73, models.InvoiceStatusLate),
		invoiceDue(12, 1, 28, models.InvoiceStatusLate),
	}

	late := DetectLateInvoices(invoices, nil, nil, scanDate)

	wantDays := []int{73, 28, 11}
	if len(late) != len(wantDays) {
		t.Fatalf("expected %d invoices, got %d", len(wantDays), len(late))
	}
	for i, want := range wantDays {
		if late[i].DaysLate != want {
			t.Fatalf("position %d: DaysLate = %d, want %d", i, late[i].DaysLate, want)
		}
	}
}

func TestDetectLateInvoicesGracefulDegradation(t *testing.T) {
	// No lease context at all: the record is still produced, with
	// placeholders instead of tenant and address.
	invoices := []models.Invoice{invoiceDue(1, 99, 20, models.InvoiceStatusLate)}

	late := DetectLateInvoices(invoices, nil, nil, scanDate)

	if len(late) != 1 {
		t.Fatalf("missing lease context must not drop the invoice: got %d records", len(late))
	}
	if late[0].TenantName != "Locataire" {
		t.Fatalf("tenant placeholder = %q", late[0].TenantName)
	}
	if late[0].PropertyAddress != "Adresse inconnue" {
		t.Fatalf("address placeholder = %q", late[0].PropertyAddress)
	}
}

func TestDetectLateInvoicesResolvesLeaseContext(t *testing.T) {
	invoices := []models.Invoice{invoiceDue(1, 7, 20, models.InvoiceStatusLate)}
	leases := []models.Lease{{
		ID:        7,
		LeaseType: models.LeaseTypeMeuble,
		Property: &models.Property{
			AddressLine1: "12 rue de la Paix",
			PostalCode:   "75002",
			City:         "Paris",
		},
	}}
	signers := map[int][]models.LeaseSigner{
		7: {
			{LeaseId: 7, Role: models.SignerRoleGuarantor, Profile: &models.Profile{FirstName: "Paul", LastName: "Garant"}},
			{LeaseId: 7, Role: models.SignerRolePrincipalTenant, Profile: &models.Profile{
				FirstName: "Marie",
				LastName:  "Dupont",
				Email:     "marie.dupont@example.fr",
				Phone:     "06 12 34 56 78",
			}},
		},
	}

	late := DetectLateInvoices(invoices, leases, signers, scanDate)

	if len(late) != 1 {
		t.Fatalf("expected 1 record, got %d", len(late))
	}
	rec := late[0]
	if rec.TenantName != "Marie Dupont" {
		t.Fatalf("tenant = %q, want the principal signer, not the guarantor", rec.TenantName)
	}
	if rec.TenantEmail != "marie.dupont@example.fr" {
		t.Fatalf("email = %q", rec.TenantEmail)
	}
	if rec.TenantPhone != "+33612345678" {
		t.Fatalf("phone = %q, want E.164", rec.TenantPhone)
	}
	if rec.PropertyAddress != "12 rue de la Paix, 75002 Paris" {
		t.Fatalf("address = %q", rec.PropertyAddress)
	}
	if rec.LeaseType != models.LeaseTypeMeuble {
		t.Fatalf("lease type = %q", rec.LeaseType)
	}
}
