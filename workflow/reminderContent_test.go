package workflow

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

func lateInvoiceFixture(daysLate int) models.LateInvoice {
	return models.LateInvoice{
		InvoiceId:       1,
		LeaseId:         7,
		Amount:          decimal.RequireFromString("850.50"),
		DueDate:         time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC),
		DaysLate:        daysLate,
		ReminderLevel:   ClassifyReminderLevel(daysLate),
		TenantName:      "Marie Dupont",
		TenantEmail:     "marie.dupont@example.fr",
		PropertyAddress: "12 rue de la Paix, 75002 Paris",
	}
}

func TestRenderReminderAmiable(t *testing.T) {
	inv := lateInvoiceFixture(8)

	content, err := RenderReminder(models.ReminderLevelAmiable, inv)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(content.Subject, "Rappel") {
		t.Fatalf("subject missing 'Rappel': %q", content.Subject)
	}
	if !strings.Contains(content.Subject, inv.PropertyAddress) {
		t.Fatalf("subject missing property address: %q", content.Subject)
	}
	if !strings.Contains(content.Body, "Marie Dupont") {
		t.Fatalf("body missing tenant name: %q", content.Body)
	}
	if !strings.Contains(content.Body, "850.50") {
		t.Fatalf("body missing amount: %q", content.Body)
	}
	if strings.Contains(content.Body, "MISE EN DEMEURE") || strings.Contains(content.Subject, "MISE EN DEMEURE") {
		t.Fatal("an amiable reminder must never threaten a mise en demeure")
	}
}

func TestRenderReminderFormelle(t *testing.T) {
	inv := lateInvoiceFixture(21)

	content, err := RenderReminder(models.ReminderLevelFormelle, inv)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(content.Subject, "Relance") {
		t.Fatalf("subject missing 'Relance': %q", content.Subject)
	}
	if !strings.Contains(content.Body, "retard de 21 jours") {
		t.Fatalf("body missing exact days-late count: %q", content.Body)
	}
	if !strings.Contains(content.Body, "délai de 8 jours") {
		t.Fatalf("body missing the 8-day compliance window: %q", content.Body)
	}
}

func TestRenderReminderMiseEnDemeure(t *testing.T) {
	inv := lateInvoiceFixture(45)

	content, err := RenderReminder(models.ReminderLevelMiseEnDemeure, inv)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(content.Subject, "MISE EN DEMEURE") {
		t.Fatalf("subject missing 'MISE EN DEMEURE': %q", content.Subject)
	}
	if !strings.Contains(content.Body, "article 24") {
		t.Fatalf("body missing the statutory article: %q", content.Body)
	}
	if !strings.Contains(content.Body, "loi n°89-462") {
		t.Fatalf("body missing the statute reference: %q", content.Body)
	}
	if !strings.Contains(content.Body, fmt.Sprintf("%d jours", inv.DaysLate)) {
		t.Fatalf("body missing exact days-late count: %q", content.Body)
	}
}

func TestRenderReminderValidatesRecord(t *testing.T) {
	inv := lateInvoiceFixture(10)
	inv.TenantName = ""

	_, err := RenderReminder(models.ReminderLevelAmiable, inv)
	if !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("missing tenant name must be a validation error, got %v", err)
	}

	inv = lateInvoiceFixture(10)
	inv.DaysLate = 0
	if _, err := RenderReminder(models.ReminderLevelAmiable, inv); !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("zero days late must be a validation error, got %v", err)
	}
}

func TestRenderReminderUnknownLevel(t *testing.T) {
	_, err := RenderReminder(models.ReminderLevel("urgente"), lateInvoiceFixture(10))
	if !errors.Is(err, utils.ErrorValidation) {
		t.Fatalf("unknown level must be a validation error, got %v", err)
	}
}

func TestRenderReminderFrenchDateFormat(t *testing.T) {
	content, err := RenderReminder(models.ReminderLevelAmiable, lateInvoiceFixture(8))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(content.Body, "05/06/2025") {
		t.Fatalf("due date must be rendered DD/MM/YYYY: %q", content.Body)
	}
}
