package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/budgetree/internal/allocation"
	"github.com/alexanderramin/budgetree/internal/domain"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRecompute_LabelsResults(t *testing.T) {
	r := New()
	r.ObserveRecompute(time.Millisecond, 12, nil)
	r.ObserveRecompute(time.Millisecond, 0, &domain.ValidationError{Errs: []error{errors.New("x")}})
	r.ObserveRecompute(time.Millisecond, 0, errors.New("boom"))

	assert.Equal(t, 1.0, promtest.ToFloat64(r.recomputes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.recomputes.WithLabelValues("invalid")))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.recomputes.WithLabelValues("error")))
	assert.Equal(t, 12.0, promtest.ToFloat64(r.treeNodes))
}

func TestObserveSettlement(t *testing.T) {
	r := New()
	results := []*allocation.Result{
		{TotalOutstanding: decimal.NewFromInt(30), Residuals: []allocation.Residual{{PaymentNo: "P"}}},
		{TotalOutstanding: decimal.NewFromInt(12)},
	}
	r.ObserveSettlement(domain.Receivable, results)
	r.ObserveLinkRejected()

	assert.Equal(t, 1.0, promtest.ToFloat64(r.settlements.WithLabelValues("receivable")))
	assert.Equal(t, 42.0, promtest.ToFloat64(r.outstanding.WithLabelValues("receivable")))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.residuals.WithLabelValues("receivable")))
	assert.Equal(t, 1.0, promtest.ToFloat64(r.linkRejections))
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveRecompute(time.Millisecond, 3, nil)

	path := filepath.Join(t.TempDir(), "budgetree.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `budgetree_recompute_total{result="ok"} 1`)
	assert.Contains(t, string(data), "budgetree_tree_nodes 3")
}
