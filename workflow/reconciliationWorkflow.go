package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// eventEmitTimeout bounds the best-effort outbox write so a slow insert can
// never stall the surrounding reconciliation.
const eventEmitTimeout = 2 * time.Second

type chargeReconciledPayload struct {
	ReconciliationId int             `json:"reconciliation_id"`
	LeaseId          int             `json:"lease_id"`
	Year             int             `json:"year"`
	Delta            decimal.Decimal `json:"delta"`
}

// ComputeReconciliation sums annualized rebillable charges and collected
// provisions with decimal accumulation. Delta is charges minus provisions,
// rounded to the cent: positive means the tenant owes the difference,
// negative means a credit is due back.
func ComputeReconciliation(charges []models.Charge, provisions []models.Provision) (totalCharges, totalProvisions, delta decimal.Decimal) {
	totalCharges = decimal.Zero
	for _, charge := range charges {
		if !charge.IsRebillable() {
			continue
		}
		totalCharges = totalCharges.Add(Annualize(charge.Amount, charge.Periodicity))
	}

	totalProvisions = decimal.Zero
	for _, provision := range provisions {
		totalProvisions = totalProvisions.Add(provision.Amount)
	}

	totalCharges = totalCharges.Round(2)
	totalProvisions = totalProvisions.Round(2)
	delta = totalCharges.Sub(totalProvisions).Round(2)
	return totalCharges, totalProvisions, delta
}

// ProcessLeaseReconciliation runs the annual charge regularization for one
// lease. The computation is a pure function of its inputs: re-running for the
// same (lease, year) overwrites the existing record with identical values.
func ProcessLeaseReconciliation(ctx context.Context, db *gorm.DB, logger *logrus.Logger, leaseId int, year int) (*models.Reconciliation, error) {
	lease, err := models.GetLeaseById(ctx, leaseId)
	if err != nil {
		return nil, err
	}

	charges, err := models.GetChargesByProperty(ctx, lease.PropertyId)
	if err != nil {
		return nil, fmt.Errorf("%w: loading charges for property %d: %v", utils.ErrorStorage, lease.PropertyId, err)
	}
	for _, charge := range charges {
		if charge.IsRebillable() && !knownPeriodicity(charge.Periodicity) {
			logger.WithFields(logrus.Fields{
				"module":      "reconciliationWorkflow.go",
				"charge_id":   charge.ID,
				"periodicity": charge.Periodicity,
			}).Warn("unknown charge periodicity contributes 0 to regularization")
		}
	}

	provisions, err := models.GetProvisionsForYear(ctx, leaseId, year)
	if err != nil {
		return nil, fmt.Errorf("%w: loading provisions for lease %d year %d: %v", utils.ErrorStorage, leaseId, year, err)
	}

	totalCharges, totalProvisions, delta := ComputeReconciliation(charges, provisions)

	rec := &models.Reconciliation{
		LeaseId:         leaseId,
		Year:            year,
		TotalCharges:    totalCharges,
		TotalProvisions: totalProvisions,
		Delta:           delta,
		Status:          models.ReconciliationStatusCalculated,
	}
	if err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return models.UpsertReconciliation(tx, rec)
	}); err != nil {
		return nil, err
	}

	// Best-effort event emission: a failed outbox write is logged and
	// swallowed, never propagated to the reconciliation that already
	// succeeded.
	emitCtx, cancel := context.WithTimeout(ctx, eventEmitTimeout)
	defer cancel()
	payload := chargeReconciledPayload{
		ReconciliationId: rec.ID,
		LeaseId:          leaseId,
		Year:             year,
		Delta:            delta,
	}
	if err := models.EmitEvent(emitCtx, db, models.EventTypeChargeReconciled, payload); err != nil {
		config.LogError(logger, "reconciliationWorkflow.go", "ProcessLeaseReconciliation", "EmitEvent Charge.Reconciled", payload, err)
	}

	return rec, nil
}

func knownPeriodicity(p models.ChargePeriodicity) bool {
	switch p {
	case models.PeriodicityMonthly, models.PeriodicityQuarterly, models.PeriodicityYearly:
		return true
	}
	return false
}
