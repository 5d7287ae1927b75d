package reports

import (
	"bytes"
	"testing"

	"github.com/mmdatafocus/rentals_backend/models"
	"github.com/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func statementFixture() Statement {
	lease := &models.Lease{
		ID:         7,
		PropertyId: 3,
		Property: &models.Property{
			ID:           3,
			AddressLine1: "12 rue de la Paix",
			PostalCode:   "75002",
			City:         "Paris",
		},
	}
	signers := []models.LeaseSigner{
		{LeaseId: 7, Role: models.SignerRolePrincipalTenant, Profile: &models.Profile{FirstName: "Marie", LastName: "Dupont"}},
	}
	charges := []models.Charge{
		{Label: "Entretien parties communes", Amount: decimal.RequireFromString("100"), Periodicity: models.PeriodicityMonthly, Rebillable: utils.NewTrue()},
		{Label: "Taxe fonciere", Amount: decimal.RequireFromString("500"), Periodicity: models.PeriodicityYearly, Rebillable: utils.NewFalse()},
		{Label: "Ordures menageres", Amount: decimal.RequireFromString("60"), Periodicity: models.PeriodicityQuarterly, Rebillable: utils.NewTrue()},
	}
	rec := &models.Reconciliation{
		LeaseId:         7,
		Year:            2025,
		TotalCharges:    decimal.RequireFromString("1440.00"),
		TotalProvisions: decimal.RequireFromString("960.00"),
		Delta:           decimal.RequireFromString("480.00"),
		Status:          models.ReconciliationStatusCalculated,
	}
	return BuildStatement(lease, signers, charges, rec)
}

func TestBuildStatement(t *testing.T) {
	stmt := statementFixture()

	require.Equal(t, 7, stmt.LeaseId)
	require.Equal(t, 2025, stmt.Year)
	require.Equal(t, "12 rue de la Paix, 75002 Paris", stmt.PropertyAddress)
	require.Equal(t, "Marie Dupont", stmt.TenantName)

	// Only rebillable charges become lines.
	require.Len(t, stmt.Lines, 2)
	require.Equal(t, "Entretien parties communes", stmt.Lines[0].Label)
	require.True(t, stmt.Lines[0].AnnualAmount.Equal(decimal.RequireFromString("1200.00")))
	require.Equal(t, "Ordures menageres", stmt.Lines[1].Label)
	require.True(t, stmt.Lines[1].AnnualAmount.Equal(decimal.RequireFromString("240.00")))

	require.True(t, stmt.Delta.Equal(decimal.RequireFromString("480.00")))
}

func TestWriteStatementXLSX(t *testing.T) {
	stmt := statementFixture()

	var buf bytes.Buffer
	require.NoError(t, WriteStatementXLSX(&stmt, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	require.Contains(t, title, "2025")

	addr, err := f.GetCellValue("Sheet1", "B2")
	require.NoError(t, err)
	require.Equal(t, "12 rue de la Paix, 75002 Paris", addr)

	firstLine, err := f.GetCellValue("Sheet1", "A6")
	require.NoError(t, err)
	require.Equal(t, "Entretien parties communes", firstLine)

	firstAnnual, err := f.GetCellValue("Sheet1", "D6")
	require.NoError(t, err)
	require.Equal(t, "1200.00", firstAnnual)

	// Two lines (rows 6-7), blank row, then the three total rows.
	totalCharges, err := f.GetCellValue("Sheet1", "D9")
	require.NoError(t, err)
	require.Equal(t, "1440.00", totalCharges)

	balanceLabel, err := f.GetCellValue("Sheet1", "A11")
	require.NoError(t, err)
	require.Equal(t, "Solde du par le locataire", balanceLabel)
	balance, err := f.GetCellValue("Sheet1", "D11")
	require.NoError(t, err)
	require.Equal(t, "480.00", balance)
}

func TestWriteStatementXLSXCreditWording(t *testing.T) {
	stmt := statementFixture()
	stmt.Delta = decimal.RequireFromString("-120.00")

	var buf bytes.Buffer
	require.NoError(t, WriteStatementXLSX(&stmt, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	label, err := f.GetCellValue("Sheet1", "A11")
	require.NoError(t, err)
	require.Equal(t, "Solde a rembourser au locataire", label)

	amount, err := f.GetCellValue("Sheet1", "D11")
	require.NoError(t, err)
	require.Equal(t, "120.00", amount)
}
