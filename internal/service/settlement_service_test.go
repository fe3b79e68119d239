package service

import (
	"context"
	"testing"

	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/repository"
	"github.com/alexanderramin/budgetree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settlementFixture struct {
	svc      SettlementService
	invoices *repository.SQLiteInvoiceRepo
	metrics  *countingMetrics
}

func setupSettlementService(t *testing.T) settlementFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	f := settlementFixture{
		invoices: repository.NewSQLiteInvoiceRepo(database),
		metrics:  &countingMetrics{},
	}
	f.svc = NewSettlementService(f.invoices, repository.NewSQLitePaymentRepo(database),
		testutil.NewTestUoW(database), f.metrics)
	return f
}

const clientInvoicesCSV = `InvoiceNo,Counterparty,Date,DueDate,Amount
A,Acme,2024-12-01,2025-01-01,100
B,Acme,2025-01-01,2025-02-01,50
C,Globex,2025-01-01,2025-01-15,80
`

const clientReceiptsCSV = `PaymentNo,Counterparty,Date,Amount,Method,Status
R1,Acme,2025-01-10,120,transfer,Collected
R2,Acme,2025-01-20,500,cheque,Under Collection
R3,Globex,2025-01-20,100,transfer,collected
`

func invoiceByNo(t *testing.T, invoices []domain.Invoice, no string) domain.Invoice {
	t.Helper()
	for _, inv := range invoices {
		if inv.InvoiceNo == no {
			return inv
		}
	}
	t.Fatalf("invoice %s not found", no)
	return domain.Invoice{}
}

func TestSettlementRun_FIFOAcrossCounterparties(t *testing.T) {
	f := setupSettlementService(t)
	ctx := context.Background()

	resp, err := f.svc.ImportInvoices(ctx, writeFile(t, "inv.csv", clientInvoicesCSV), domain.Receivable)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Imported)
	resp, err = f.svc.ImportPayments(ctx, writeFile(t, "pay.csv", clientReceiptsCSV), domain.Receivable)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Imported)

	run, err := f.svc.Run(ctx, contract.SettleRequest{Direction: domain.Receivable})
	require.NoError(t, err)
	require.Len(t, run.Results, 2)
	assert.Equal(t, "Acme", run.Results[0].Counterparty)
	assert.Equal(t, "Globex", run.Results[1].Counterparty)
	require.Len(t, run.Warnings, 1)
	assert.Equal(t, domain.WarnOverpaymentResidual, run.Warnings[0].Kind)
	assert.Equal(t, "R3", run.Warnings[0].Subject)

	settled, outstanding := run.Totals()
	assert.True(t, settled.Equal(testutil.Dec("200")), settled.String())
	assert.True(t, outstanding.Equal(testutil.Dec("30")), outstanding.String())

	stored, err := f.invoices.List(ctx, domain.Receivable, "")
	require.NoError(t, err)
	a := invoiceByNo(t, stored, "A")
	b := invoiceByNo(t, stored, "B")
	c := invoiceByNo(t, stored, "C")
	assert.True(t, a.Settled.Equal(testutil.Dec("100")))
	assert.True(t, a.Outstanding().IsZero())
	assert.True(t, b.Settled.Equal(testutil.Dec("20")))
	assert.True(t, b.Outstanding().Equal(testutil.Dec("30")))
	assert.True(t, c.Settled.Equal(testutil.Dec("80")))
	assert.Equal(t, 1, f.metrics.settlements)
}

func TestSettlementRun_IsRecomputedFromScratch(t *testing.T) {
	f := setupSettlementService(t)
	ctx := context.Background()

	_, err := f.svc.ImportInvoices(ctx, writeFile(t, "inv.csv", clientInvoicesCSV), domain.Receivable)
	require.NoError(t, err)
	_, err = f.svc.ImportPayments(ctx, writeFile(t, "pay.csv", clientReceiptsCSV), domain.Receivable)
	require.NoError(t, err)

	for range 2 {
		_, err = f.svc.Run(ctx, contract.SettleRequest{Direction: domain.Receivable, Counterparty: "Acme"})
		require.NoError(t, err)
	}
	stored, err := f.invoices.List(ctx, domain.Receivable, "Acme")
	require.NoError(t, err)
	assert.True(t, invoiceByNo(t, stored, "B").Settled.Equal(testutil.Dec("20")), "running twice must not double count")

	// The cheque clears: re-importing with the new status settles the rest.
	cleared := "PaymentNo,Counterparty,Date,Amount,Method,Status\nR2,Acme,2025-01-20,500,cheque,collected\n"
	_, err = f.svc.ImportPayments(ctx, writeFile(t, "pay2.csv", cleared), domain.Receivable)
	require.NoError(t, err)
	run, err := f.svc.Run(ctx, contract.SettleRequest{Direction: domain.Receivable, Counterparty: "Acme"})
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	assert.True(t, run.Results[0].TotalOutstanding.IsZero())
	assert.True(t, run.Results[0].TotalResidual.Equal(testutil.Dec("470")))
}

func TestSettlementRun_PayableIgnoresReceiptStatuses(t *testing.T) {
	f := setupSettlementService(t)
	ctx := context.Background()

	_, err := f.svc.ImportInvoices(ctx, writeFile(t, "inv.csv", clientInvoicesCSV), domain.Payable)
	require.NoError(t, err)
	pay := "PaymentNo,Counterparty,Date,Amount,Method,Status\nS1,Acme,2025-01-10,60,transfer,paid\nS2,Acme,2025-01-11,60,cheque,cheque_issued\n"
	_, err = f.svc.ImportPayments(ctx, writeFile(t, "pay.csv", pay), domain.Payable)
	require.NoError(t, err)

	run, err := f.svc.Run(ctx, contract.SettleRequest{Direction: domain.Payable, Counterparty: "Acme"})
	require.NoError(t, err)
	require.Len(t, run.Results, 1)
	res := run.Results[0]
	assert.True(t, res.TotalSettled.Equal(testutil.Dec("60")))
	require.Len(t, res.Ineligible, 1)
	assert.Equal(t, "S2", res.Ineligible[0].PaymentNo)

	// Receivable side is untouched by payable runs.
	recv, err := f.svc.Run(ctx, contract.SettleRequest{Direction: domain.Receivable})
	require.NoError(t, err)
	assert.Empty(t, recv.Results)
}

func TestSettlementImport_CollectsErrors(t *testing.T) {
	f := setupSettlementService(t)
	ctx := context.Background()

	bad := "InvoiceNo,Counterparty,DueDate,Amount\nA,Acme,not-a-date,100\nB,Acme,2025-01-01,-5x\n"
	_, err := f.svc.ImportInvoices(ctx, writeFile(t, "bad.csv", bad), domain.Receivable)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "(2 errors)")

	stored, err := f.invoices.List(ctx, domain.Receivable, "")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSettlementRun_RejectsUnknownDirection(t *testing.T) {
	f := setupSettlementService(t)
	_, err := f.svc.Run(context.Background(), contract.SettleRequest{Direction: "sideways"})
	assert.Error(t, err)
}
