package workflow

import (
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/shopspring/decimal"
)

// Annualize converts a charge's periodic amount into the figure billed over a
// full year. Unknown periodicities contribute zero; a charge with a
// periodicity this engine does not recognize must not inflate the
// regularization (see DESIGN.md for the open question on hardening this).
func Annualize(amount decimal.Decimal, periodicity models.ChargePeriodicity) decimal.Decimal {
	switch periodicity {
	case models.PeriodicityMonthly:
		return amount.Mul(decimal.NewFromInt(12))
	case models.PeriodicityQuarterly:
		return amount.Mul(decimal.NewFromInt(4))
	case models.PeriodicityYearly:
		return amount
	default:
		return decimal.Zero
	}
}
