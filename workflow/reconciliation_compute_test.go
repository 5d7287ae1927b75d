package workflow

import (
	"testing"

	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
)

func charge(amount string, periodicity models.ChargePeriodicity, rebillable bool) models.Charge {
	flag := utils.NewFalse()
	if rebillable {
		flag = utils.NewTrue()
	}
	return models.Charge{
		Amount:      decimal.RequireFromString(amount),
		Periodicity: periodicity,
		Rebillable:  flag,
	}
}

func provisionsOf(amounts ...string) []models.Provision {
	out := make([]models.Provision, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, models.Provision{Amount: decimal.RequireFromString(a)})
	}
	return out
}

func TestComputeReconciliation(t *testing.T) {
	// Rebillable 100/month annualizes to 1200; the 500/year charge is not
	// rebillable and must be excluded. Ten provisions of 80 total 800.
	charges := []models.Charge{
		charge("100", models.PeriodicityMonthly, true),
		charge("500", models.PeriodicityYearly, false),
	}
	provisions := provisionsOf("80", "80", "80", "80", "80", "80", "80", "80", "80", "80")

	totalCharges, totalProvisions, delta := ComputeReconciliation(charges, provisions)

	if want := decimal.RequireFromString("1200"); !totalCharges.Equal(want) {
		t.Fatalf("total charges = %s, want %s", totalCharges, want)
	}
	if want := decimal.RequireFromString("800"); !totalProvisions.Equal(want) {
		t.Fatalf("total provisions = %s, want %s", totalProvisions, want)
	}
	if want := decimal.RequireFromString("400"); !delta.Equal(want) {
		t.Fatalf("delta = %s, want %s", delta, want)
	}
}

func TestComputeReconciliationNegativeDelta(t *testing.T) {
	// Over-provisioned year: the tenant is owed money back.
	charges := []models.Charge{charge("50", models.PeriodicityMonthly, true)}
	provisions := provisionsOf("70", "70", "70", "70", "70", "70", "70", "70", "70", "70", "70", "70")

	_, _, delta := ComputeReconciliation(charges, provisions)

	if want := decimal.RequireFromString("-240"); !delta.Equal(want) {
		t.Fatalf("delta = %s, want %s", delta, want)
	}
	if delta.Sign() >= 0 {
		t.Fatalf("expected a credit (negative delta), got %s", delta)
	}
}

func TestComputeReconciliationRoundsToCents(t *testing.T) {
	charges := []models.Charge{charge("33.333", models.PeriodicityMonthly, true)}
	provisions := provisionsOf("0.005")

	totalCharges, totalProvisions, delta := ComputeReconciliation(charges, provisions)

	if totalCharges.Exponent() < -2 || totalProvisions.Exponent() < -2 || delta.Exponent() < -2 {
		t.Fatalf("totals not rounded to cents: charges=%s provisions=%s delta=%s",
			totalCharges, totalProvisions, delta)
	}
	if want := decimal.RequireFromString("400.00"); !totalCharges.Equal(want) {
		t.Fatalf("total charges = %s, want %s", totalCharges, want)
	}
}

func TestComputeReconciliationEmptyInputs(t *testing.T) {
	totalCharges, totalProvisions, delta := ComputeReconciliation(nil, nil)
	if !totalCharges.IsZero() || !totalProvisions.IsZero() || !delta.IsZero() {
		t.Fatalf("expected all zero, got charges=%s provisions=%s delta=%s",
			totalCharges, totalProvisions, delta)
	}
}

func TestComputeReconciliationDeterministic(t *testing.T) {
	charges := []models.Charge{
		charge("123.45", models.PeriodicityMonthly, true),
		charge("9.99", models.PeriodicityQuarterly, true),
		charge("1000", models.PeriodicityYearly, true),
	}
	provisions := provisionsOf("200.10", "200.10", "199.80")

	firstCharges, firstProvisions, firstDelta := ComputeReconciliation(charges, provisions)
	for i := 0; i < 50; i++ {
		c, p, d := ComputeReconciliation(charges, provisions)
		if !c.Equal(firstCharges) || !p.Equal(firstProvisions) || !d.Equal(firstDelta) {
			t.Fatalf("run %d diverged: (%s,%s,%s) vs (%s,%s,%s)",
				i, c, p, d, firstCharges, firstProvisions, firstDelta)
		}
	}
}

func TestComputeReconciliationUnknownPeriodicityExcluded(t *testing.T) {
	charges := []models.Charge{
		charge("100", models.PeriodicityMonthly, true),
		charge("9999", models.ChargePeriodicity("weekly"), true),
	}

	totalCharges, _, _ := ComputeReconciliation(charges, nil)

	if want := decimal.RequireFromString("1200"); !totalCharges.Equal(want) {
		t.Fatalf("unknown periodicity inflated the total: %s, want %s", totalCharges, want)
	}
}
