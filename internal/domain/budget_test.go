package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetValidate_CollectsAllErrors(t *testing.T) {
	b := &Budget{Type: BudgetProject, StartMonth: "2025-13"}
	errs := b.Validate()
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "budget name is required")
	assert.Contains(t, errs[1].Error(), "project name is required")
	assert.Contains(t, errs[2].Error(), "invalid bucket")
}

func TestBudgetValidate_CompanyNeedsNoProject(t *testing.T) {
	b := &Budget{Name: "Opex", Type: BudgetCompany}
	assert.Empty(t, b.Validate())
}

func TestBudgetNormalize_SwapsReversedRange(t *testing.T) {
	b := &Budget{Name: " Opex ", StartMonth: "2025-06", EndMonth: "2025-01", Currency: "egp"}
	b.Normalize()
	assert.Equal(t, "Opex", b.Name)
	assert.Equal(t, BucketKey("2025-01"), b.StartMonth)
	assert.Equal(t, BucketKey("2025-06"), b.EndMonth)
	assert.Equal(t, "EGP", b.Currency)
	assert.Equal(t, "v1", b.Version)
	assert.Equal(t, BudgetCompany, b.Type)
	assert.Len(t, b.Months(), 6)
}

func TestParseDirection_EligibleStatus(t *testing.T) {
	d, err := ParseDirection("Receivable")
	require.NoError(t, err)
	assert.Equal(t, PaymentCollected, d.EligibleStatus())

	d, err = ParseDirection("payable")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, d.EligibleStatus())

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestPaymentEligible_OnlySettledStatusCounts(t *testing.T) {
	for _, st := range []PaymentStatus{PaymentPending, PaymentRejected, PaymentUnderCollection, PaymentInTreasury} {
		assert.False(t, Payment{Status: st}.Eligible(Receivable), st)
	}
	assert.True(t, Payment{Status: PaymentCollected}.Eligible(Receivable))
	assert.False(t, Payment{Status: PaymentCollected}.Eligible(Payable))
	assert.True(t, Payment{Status: PaymentPaid}.Eligible(Payable))
}

func TestParsePaymentStatus(t *testing.T) {
	st, err := ParsePaymentStatus("Under Collection")
	require.NoError(t, err)
	assert.Equal(t, PaymentUnderCollection, st)
	_, err = ParsePaymentStatus("bounced")
	assert.Error(t, err)
}

func TestNeedLineValidate(t *testing.T) {
	l := &NeedLine{Quantity: decimal.Zero}
	assert.Len(t, l.Validate(), 3)

	l = &NeedLine{ResourceID: "CEM-01", Quantity: decimal.NewFromInt(5), ProjectID: "P1"}
	assert.Empty(t, l.Validate())
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	var err error = &DuplicateCodeError{Code: "A", RecordIndices: []int{0, 2}}
	assert.True(t, errors.Is(err, ErrDuplicateCode))
	assert.Equal(t, `duplicate code "A" on records [0 2]`, err.Error())

	verr := &ValidationError{Errs: []error{&SelfParentError{Code: "X"}, &CycleDetectedError{Codes: []string{"A", "B"}}}}
	assert.True(t, errors.Is(verr, ErrSelfParent))
	assert.True(t, errors.Is(verr, ErrCycleDetected))
	var sp *SelfParentError
	require.True(t, errors.As(verr, &sp))
	assert.Equal(t, "X", sp.Code)
	assert.Contains(t, verr.Error(), "validation failed (2 errors):")
}

func TestBudgetNormalize_DefaultsCurrency(t *testing.T) {
	b := &Budget{Name: "Opex"}
	b.Normalize()
	assert.Equal(t, DefaultCurrency, b.Currency)
}

func TestCoalesceStr(t *testing.T) {
	assert.Equal(t, "b", CoalesceStr("", "  ", " b ", "c"))
	assert.Equal(t, "", CoalesceStr())
	assert.Equal(t, "", CoalesceStr(" ", ""))
}
