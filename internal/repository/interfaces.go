package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is wrapped by every lookup that matches no row.
var ErrNotFound = errors.New("not found")

type BudgetRepo interface {
	Create(ctx context.Context, b *domain.Budget) error
	GetByID(ctx context.Context, id string) (*domain.Budget, error)
	// GetByName returns the named budget; an empty version selects the most
	// recently updated one.
	GetByName(ctx context.Context, name, version string) (*domain.Budget, error)
	List(ctx context.Context) ([]*domain.Budget, error)
	Update(ctx context.Context, b *domain.Budget) error
	Delete(ctx context.Context, id string) error
}

type LineRepo interface {
	// ReplaceAll swaps the budget's lines for records, preserving their order.
	ReplaceAll(ctx context.Context, budgetID string, records []domain.LineRecord) error
	ListByBudget(ctx context.Context, budgetID string) ([]domain.LineRecord, error)
	CountByBudget(ctx context.Context, budgetID string) (int, error)
}

type InvoiceRepo interface {
	// Upsert inserts the invoice or, when (direction, counterparty, number)
	// exists, updates its dates and amount and keeps the stored ID.
	Upsert(ctx context.Context, inv *domain.Invoice) error
	List(ctx context.Context, dir domain.Direction, counterparty string) ([]domain.Invoice, error)
	UpdateSettled(ctx context.Context, id string, settled decimal.Decimal) error
}

type PaymentRepo interface {
	Upsert(ctx context.Context, p *domain.Payment) error
	List(ctx context.Context, dir domain.Direction, counterparty string) ([]domain.Payment, error)
}

type NeedRepo interface {
	CreateRequest(ctx context.Context, r *domain.NeedRequest) error
	GetRequest(ctx context.Context, id string) (*domain.NeedRequest, error)
	ListRequests(ctx context.Context) ([]*domain.NeedRequest, error)
	CreateLine(ctx context.Context, l *domain.NeedLine) error
	GetLine(ctx context.Context, id string) (*domain.NeedLine, error)
	ListLines(ctx context.Context, requestID string) ([]domain.NeedLine, error)
}

type LinkRepo interface {
	Create(ctx context.Context, l *domain.AllocationLink) error
	ListBySource(ctx context.Context, sourceLineID string) ([]domain.AllocationLink, error)
	ListByRequest(ctx context.Context, requestID string) ([]domain.AllocationLink, error)
}
