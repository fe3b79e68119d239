package service

import (
	"context"

	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/exporter"
	"github.com/alexanderramin/budgetree/internal/recompute"
)

// BudgetService imports, validates, derives and exports budgets. Budget
// arguments are references: an ID, a unique ID prefix, a name (latest
// version) or name@version.
type BudgetService interface {
	Import(ctx context.Context, req contract.ImportBudgetRequest) (*contract.BudgetReport, error)
	List(ctx context.Context) ([]*domain.Budget, error)
	Resolve(ctx context.Context, ref string) (*domain.Budget, error)
	Validate(ctx context.Context, ref string) (*contract.BudgetReport, error)
	// Derive returns the tree and rollup of a valid budget.
	Derive(ctx context.Context, ref string) (*domain.Budget, *recompute.DerivedState, error)
	Export(ctx context.Context, ref string, format exporter.Format, sink exporter.Sink) error
	Remove(ctx context.Context, ref string) error
}

type SettlementService interface {
	ImportInvoices(ctx context.Context, path string, dir domain.Direction) (*contract.LedgerImportResponse, error)
	ImportPayments(ctx context.Context, path string, dir domain.Direction) (*contract.LedgerImportResponse, error)
	// Run recomputes settlement from scratch and stores each invoice's settled amount.
	Run(ctx context.Context, req contract.SettleRequest) (*contract.SettleResponse, error)
}

type NeedService interface {
	CreateRequest(ctx context.Context, r *domain.NeedRequest) error
	ListRequests(ctx context.Context) ([]*domain.NeedRequest, error)
	AddLine(ctx context.Context, l *domain.NeedLine) error
	Link(ctx context.Context, req contract.LinkRequest) (*domain.AllocationLink, error)
	Show(ctx context.Context, requestID string) (*contract.NeedRequestView, error)
}
