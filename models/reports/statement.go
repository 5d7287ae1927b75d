package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/mmdatafocus/rentals_backend/config"
	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/mmdatafocus/rentals_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// StatementLine is one rebillable charge on the regularization statement.
type StatementLine struct {
	Label        string
	Periodicity  models.ChargePeriodicity
	Amount       decimal.Decimal
	AnnualAmount decimal.Decimal
}

// Statement is the "decompte de regularisation des charges" sent with the
// annual reconciliation result.
type Statement struct {
	LeaseId         int
	Year            int
	PropertyAddress string
	TenantName      string
	Lines           []StatementLine
	TotalCharges    decimal.Decimal
	TotalProvisions decimal.Decimal
	Delta           decimal.Decimal
	Status          models.ReconciliationStatus
}

// BuildStatement assembles the statement from already-loaded records. Only
// rebillable charges appear as lines; the totals come from the stored
// reconciliation so the document always matches what was persisted.
func BuildStatement(lease *models.Lease, signers []models.LeaseSigner, charges []models.Charge, rec *models.Reconciliation) Statement {
	stmt := Statement{
		LeaseId:         rec.LeaseId,
		Year:            rec.Year,
		TotalCharges:    rec.TotalCharges,
		TotalProvisions: rec.TotalProvisions,
		Delta:           rec.Delta,
		Status:          rec.Status,
	}

	if lease != nil && lease.Property != nil {
		stmt.PropertyAddress = lease.Property.Address()
	}
	for _, signer := range signers {
		if signer.Role == models.SignerRolePrincipalTenant && signer.Profile != nil {
			stmt.TenantName = signer.Profile.DisplayName()
			break
		}
	}

	for _, charge := range charges {
		if !charge.IsRebillable() {
			continue
		}
		stmt.Lines = append(stmt.Lines, StatementLine{
			Label:        charge.Label,
			Periodicity:  charge.Periodicity,
			Amount:       charge.Amount,
			AnnualAmount: workflow.Annualize(charge.Amount, charge.Periodicity).Round(2),
		})
	}
	return stmt
}

// GetStatement loads the reconciliation for (lease, year) together with the
// lease, signers and charges needed to render the statement. Returns
// RecordNotFound when no reconciliation has been calculated yet.
func GetStatement(ctx context.Context, leaseId int, year int) (*Statement, error) {
	lease, err := models.GetLeaseById(ctx, leaseId)
	if err != nil {
		return nil, err
	}

	rec, err := models.GetReconciliation(config.GetDB().WithContext(ctx), leaseId, year)
	if err != nil {
		return nil, err
	}

	charges, err := models.GetChargesByProperty(ctx, lease.PropertyId)
	if err != nil {
		return nil, fmt.Errorf("%w: loading charges for property %d: %v", utils.ErrorStorage, lease.PropertyId, err)
	}

	signersByLease, err := models.GetSignersByLease(ctx, []int{leaseId})
	if err != nil {
		return nil, fmt.Errorf("%w: loading signers for lease %d: %v", utils.ErrorStorage, leaseId, err)
	}

	stmt := BuildStatement(lease, signersByLease[leaseId], charges, rec)
	return &stmt, nil
}

// WriteStatementXLSX renders the statement as a single-sheet workbook.
func WriteStatementXLSX(stmt *Statement, w io.Writer) error {
	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", fmt.Sprintf("Decompte de regularisation des charges %d", stmt.Year))
	f.SetCellValue(sheet, "A2", "Bien")
	f.SetCellValue(sheet, "B2", stmt.PropertyAddress)
	f.SetCellValue(sheet, "A3", "Locataire")
	f.SetCellValue(sheet, "B3", stmt.TenantName)

	// Charge lines
	f.SetCellValue(sheet, "A5", "Libelle")
	f.SetCellValue(sheet, "B5", "Periodicite")
	f.SetCellValue(sheet, "C5", "Montant")
	f.SetCellValue(sheet, "D5", "Montant annuel")
	row := 6
	for _, line := range stmt.Lines {
		f.SetCellValue(sheet, "A"+fmt.Sprint(row), line.Label)
		f.SetCellValue(sheet, "B"+fmt.Sprint(row), string(line.Periodicity))
		f.SetCellValue(sheet, "C"+fmt.Sprint(row), line.Amount.StringFixed(2))
		f.SetCellValue(sheet, "D"+fmt.Sprint(row), line.AnnualAmount.StringFixed(2))
		row++
	}

	row++
	f.SetCellValue(sheet, "A"+fmt.Sprint(row), "Total charges recuperables")
	f.SetCellValue(sheet, "D"+fmt.Sprint(row), stmt.TotalCharges.StringFixed(2))
	row++
	f.SetCellValue(sheet, "A"+fmt.Sprint(row), "Total provisions versees")
	f.SetCellValue(sheet, "D"+fmt.Sprint(row), stmt.TotalProvisions.StringFixed(2))
	row++
	if stmt.Delta.Sign() >= 0 {
		f.SetCellValue(sheet, "A"+fmt.Sprint(row), "Solde du par le locataire")
	} else {
		f.SetCellValue(sheet, "A"+fmt.Sprint(row), "Solde a rembourser au locataire")
	}
	f.SetCellValue(sheet, "D"+fmt.Sprint(row), stmt.Delta.Abs().StringFixed(2))

	return f.Write(w)
}
