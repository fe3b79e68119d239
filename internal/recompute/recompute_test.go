package recompute

import (
	"sync"
	"testing"
	"time"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records() []domain.LineRecord {
	leaf := domain.LineRecord{Code: "1.1", ParentCode: "1", Label: "Salaries",
		Dimensions: map[string]domain.DimensionValue{"Dept": domain.MultiValue("Ops", "HR")}}
	leaf.SetValue("2025-01", domain.MetricPlanned, decimal.NewFromInt(100))
	return []domain.LineRecord{{Code: "1", Label: "Opex"}, leaf}
}

type countingObserver struct {
	calls  int
	failed int
}

func (o *countingObserver) ObserveRecompute(_ time.Duration, _ int, err error) {
	o.calls++
	if err != nil {
		o.failed++
	}
}

func TestRecompute_BuildsTreeAndRollup(t *testing.T) {
	state, err := Recompute(records())
	require.NoError(t, err)
	assert.Equal(t, 2, state.Tree.Len())
	assert.True(t, state.Rollup.Value("1", "2025-01", domain.MetricPlanned).Equal(decimal.NewFromInt(100)))
	assert.NotEmpty(t, state.Revision)
	assert.Len(t, state.Fingerprint, 64)
}

func TestRecompute_SnapshotIsolatedFromCaller(t *testing.T) {
	in := records()
	state, err := Recompute(in)
	require.NoError(t, err)

	in[1].SetValue("2025-01", domain.MetricPlanned, decimal.NewFromInt(5))
	assert.True(t, state.Rollup.Value("1", "2025-01", domain.MetricPlanned).Equal(decimal.NewFromInt(100)))
}

func TestFingerprint_OrderIndependentAndSensitive(t *testing.T) {
	in := records()
	reversed := []domain.LineRecord{in[1], in[0]}
	assert.Equal(t, Fingerprint(in), Fingerprint(reversed))

	changed := records()
	changed[1].SetValue("2025-01", domain.MetricPlanned, decimal.NewFromInt(101))
	assert.NotEqual(t, Fingerprint(in), Fingerprint(changed))

	// 100 and 100.00 are the same amount
	same := records()
	same[1].SetValue("2025-01", domain.MetricPlanned, decimal.RequireFromString("100.00"))
	assert.Equal(t, Fingerprint(in), Fingerprint(same))
}

func TestHolder_FailedApplyKeepsPreviousSnapshot(t *testing.T) {
	obs := &countingObserver{}
	h := NewHolder(obs)
	assert.Nil(t, h.Current())

	first, err := h.Apply(records())
	require.NoError(t, err)
	assert.Same(t, first, h.Current())

	bad := append(records(), domain.LineRecord{Code: "X", ParentCode: "X"})
	_, err = h.Apply(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSelfParent)
	assert.Same(t, first, h.Current())

	assert.Equal(t, 2, obs.calls)
	assert.Equal(t, 1, obs.failed)
}

func TestHolder_ConcurrentReadersSeeWholeStates(t *testing.T) {
	h := NewHolder(nil)
	_, err := h.Apply(records())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				in := records()
				in[1].SetValue("2025-01", domain.MetricPlanned, decimal.NewFromInt(n))
				_, _ = h.Apply(in)
			}
		}(int64(i))
	}
	for i := 0; i < 200; i++ {
		s := h.Current()
		require.NotNil(t, s)
		leaf := s.Records[1].Value("2025-01", domain.MetricPlanned)
		assert.True(t, s.Rollup.Value("1", "2025-01", domain.MetricPlanned).Equal(leaf))
	}
	wg.Wait()
}

func TestFingerprint_LabelCannotMimicBucket(t *testing.T) {
	mimic := []domain.LineRecord{{Code: "A", Label: `x|b:2025-01=5/0`}}

	priced := domain.LineRecord{Code: "A", Label: "x"}
	priced.SetValue("2025-01", domain.MetricPlanned, decimal.NewFromInt(5))

	assert.NotEqual(t, Fingerprint(mimic), Fingerprint([]domain.LineRecord{priced}))
}

func TestFingerprint_DimensionValuesKeepTheirBoundaries(t *testing.T) {
	joined := domain.LineRecord{Code: "A",
		Dimensions: map[string]domain.DimensionValue{"Dept": domain.SingleValue("Ops;HR")}}
	split := domain.LineRecord{Code: "A",
		Dimensions: map[string]domain.DimensionValue{"Dept": domain.MultiValue("Ops", "HR")}}
	assert.NotEqual(t, Fingerprint([]domain.LineRecord{joined}), Fingerprint([]domain.LineRecord{split}))

	newline := []domain.LineRecord{{Code: "A", Label: "x\nB"}}
	two := []domain.LineRecord{{Code: "A", Label: "x"}, {Code: "B"}}
	assert.NotEqual(t, Fingerprint(newline), Fingerprint(two))
}
