package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceRepo_UpsertKeepsIDAndSettlement(t *testing.T) {
	repo := NewSQLiteInvoiceRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	inv := testutil.NewTestInvoice("INV-1", "Acme", "2025-02-01", "100")
	require.NoError(t, repo.Upsert(ctx, &inv))
	require.NoError(t, repo.UpdateSettled(ctx, inv.ID, testutil.Dec("40")))

	again := testutil.NewTestInvoice("INV-1", "Acme", "2025-03-01", "150")
	require.NoError(t, repo.Upsert(ctx, &again))
	assert.Equal(t, inv.ID, again.ID, "conflicting upsert returns the stored id")

	list, err := repo.List(ctx, domain.Receivable, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Amount.Equal(testutil.Dec("150")))
	assert.True(t, list[0].Settled.Equal(testutil.Dec("40")))
	assert.Equal(t, "2025-03-01", list[0].DueDate.Format("2006-01-02"))
}

func TestInvoiceRepo_ListFiltersAndOrders(t *testing.T) {
	repo := NewSQLiteInvoiceRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	for _, inv := range []domain.Invoice{
		testutil.NewTestInvoice("B", "Acme", "2025-03-01", "1"),
		testutil.NewTestInvoice("A", "Acme", "2025-01-01", "1"),
		testutil.NewTestInvoice("C", "Globex", "2025-01-01", "1"),
	} {
		require.NoError(t, repo.Upsert(ctx, &inv))
	}
	payable := testutil.NewTestInvoice("P", "Acme", "2025-01-01", "1")
	payable.Direction = domain.Payable
	require.NoError(t, repo.Upsert(ctx, &payable))

	acme, err := repo.List(ctx, domain.Receivable, "Acme")
	require.NoError(t, err)
	require.Len(t, acme, 2)
	assert.Equal(t, "A", acme[0].InvoiceNo)
	assert.Equal(t, "B", acme[1].InvoiceNo)

	all, err := repo.List(ctx, domain.Receivable, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestInvoiceRepo_UpdateSettled_NotFound(t *testing.T) {
	repo := NewSQLiteInvoiceRepo(testutil.NewTestDB(t))
	err := repo.UpdateSettled(context.Background(), "missing", testutil.Dec("1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaymentRepo_UpsertAndList(t *testing.T) {
	repo := NewSQLitePaymentRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	p := testutil.NewTestPayment("PAY-1", "Acme", "2025-01-10", "70")
	p.Status = domain.PaymentPending
	require.NoError(t, repo.Upsert(ctx, &p))

	updated := testutil.NewTestPayment("PAY-1", "Acme", "2025-01-10", "70")
	require.NoError(t, repo.Upsert(ctx, &updated))
	assert.Equal(t, p.ID, updated.ID)

	list, err := repo.List(ctx, domain.Receivable, "Acme")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.PaymentCollected, list[0].Status)
	assert.Equal(t, "transfer", list[0].Method)
	assert.True(t, list[0].Amount.Equal(testutil.Dec("70")))
}
