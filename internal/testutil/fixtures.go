package testutil

import (
	"time"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date parses a YYYY-MM-DD literal and panics on malformed input.
func Date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// LineRecord options
type RecordOption func(*domain.LineRecord)

func WithParent(code string) RecordOption {
	return func(r *domain.LineRecord) {
		r.ParentCode = code
	}
}

func WithLabel(label string) RecordOption {
	return func(r *domain.LineRecord) {
		r.Label = label
	}
}

func WithPlanned(bucket domain.BucketKey, amount string) RecordOption {
	return func(r *domain.LineRecord) {
		r.SetValue(bucket, domain.MetricPlanned, Dec(amount))
	}
}

func WithActual(bucket domain.BucketKey, amount string) RecordOption {
	return func(r *domain.LineRecord) {
		r.SetValue(bucket, domain.MetricActual, Dec(amount))
	}
}

func WithDimension(name string, v domain.DimensionValue) RecordOption {
	return func(r *domain.LineRecord) {
		r.Dimensions[name] = v
	}
}

// NewTestRecord builds a line labelled after its code with no values.
func NewTestRecord(code string, opts ...RecordOption) domain.LineRecord {
	r := domain.LineRecord{
		Code:       code,
		Label:      "Line " + code,
		Dimensions: make(map[string]domain.DimensionValue),
		Buckets:    make(map[domain.BucketKey]domain.BucketValues),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Budget options
type BudgetOption func(*domain.Budget)

func WithVersion(v string) BudgetOption {
	return func(b *domain.Budget) {
		b.Version = v
	}
}

func WithProject(project string) BudgetOption {
	return func(b *domain.Budget) {
		b.Type = domain.BudgetProject
		b.Project = project
	}
}

func WithMonths(start, end domain.BucketKey) BudgetOption {
	return func(b *domain.Budget) {
		b.StartMonth = start
		b.EndMonth = end
	}
}

func WithDimensions(names ...string) BudgetOption {
	return func(b *domain.Budget) {
		b.Dimensions = names
	}
}

func NewTestBudget(name string, opts ...BudgetOption) *domain.Budget {
	now := time.Now().UTC().Truncate(time.Second)
	b := &domain.Budget{
		ID:         uuid.New().String(),
		Name:       name,
		Version:    "v1",
		Type:       domain.BudgetCompany,
		Currency:   "EGP",
		Dimensions: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewTestInvoice builds a receivable invoice issued on its due date.
func NewTestInvoice(no, counterparty, due, amount string) domain.Invoice {
	d := Date(due)
	return domain.Invoice{
		ID:           uuid.New().String(),
		InvoiceNo:    no,
		Counterparty: counterparty,
		Direction:    domain.Receivable,
		IssueDate:    d,
		DueDate:      d,
		Amount:       Dec(amount),
	}
}

// NewTestPayment builds a collected receivable payment.
func NewTestPayment(no, counterparty, date, amount string) domain.Payment {
	return domain.Payment{
		ID:           uuid.New().String(),
		PaymentNo:    no,
		Counterparty: counterparty,
		Direction:    domain.Receivable,
		Date:         Date(date),
		Amount:       Dec(amount),
		Method:       "transfer",
		Status:       domain.PaymentCollected,
	}
}

func NewTestNeedRequest(title string) *domain.NeedRequest {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.NeedRequest{
		ID:        uuid.New().String(),
		Title:     title,
		Requester: "site",
		ProjectID: "P-1",
		Date:      Date("2025-03-01"),
		CreatedAt: now,
	}
}

func NewTestNeedLine(requestID, resource, quantity string) *domain.NeedLine {
	return &domain.NeedLine{
		ID:         uuid.New().String(),
		RequestID:  requestID,
		ResourceID: resource,
		Quantity:   Dec(quantity),
		Unit:       "ton",
		ProjectID:  "P-1",
	}
}
