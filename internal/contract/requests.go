package contract

import (
	"github.com/alexanderramin/budgetree/internal/allocation"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
)

// ImportBudgetRequest describes one budget file import. Header fields left
// empty fall back to the file's own metadata, then to defaults.
type ImportBudgetRequest struct {
	Path            string
	Format          string
	Sheet           string
	MultiDimensions []string

	Name     string
	Version  string
	Type     string
	Project  string
	Currency string
}

func NewImportBudgetRequest(path string) ImportBudgetRequest {
	return ImportBudgetRequest{
		Path:   path,
		Format: "auto",
	}
}

// BudgetReport is the outcome of importing or validating a budget. Errors
// are tree errors; while any are present the budget cannot be rolled up or
// exported.
type BudgetReport struct {
	Budget      *domain.Budget
	Lines       int
	Errors      []error
	Warnings    []domain.Warning
	Revision    string
	Fingerprint string
	Created     bool
}

func (r *BudgetReport) Valid() bool { return len(r.Errors) == 0 }

// LedgerImportResponse counts the invoices or payments written by an import.
type LedgerImportResponse struct {
	Direction domain.Direction
	Imported  int
}

// SettleRequest selects the invoices and payments to settle. An empty
// Counterparty settles every counterparty.
type SettleRequest struct {
	Direction    domain.Direction
	Counterparty string
}

type SettleResponse struct {
	Direction domain.Direction
	Results   []*allocation.Result
	Warnings  []domain.Warning
}

// Totals sums settled and outstanding amounts across counterparties.
func (r *SettleResponse) Totals() (settled, outstanding decimal.Decimal) {
	for _, res := range r.Results {
		settled = settled.Add(res.TotalSettled)
		outstanding = outstanding.Add(res.TotalOutstanding)
	}
	return settled, outstanding
}

// PendingByStatus totals the payments that did not settle anything, per
// status, across counterparties.
func (r *SettleResponse) PendingByStatus() []allocation.StatusTotal {
	var all []domain.Payment
	for _, res := range r.Results {
		all = append(all, res.Ineligible...)
	}
	return allocation.SumByStatus(all)
}

// NeedLineView is a need line with its link totals.
type NeedLineView struct {
	Line      domain.NeedLine
	Linked    decimal.Decimal
	Remaining decimal.Decimal
}

type NeedRequestView struct {
	Request *domain.NeedRequest
	Lines   []NeedLineView
	Links   []domain.AllocationLink
}

// LinkRequest asks for quantity on a need line to be linked to a BOQ target.
type LinkRequest struct {
	LineID   string
	Quantity decimal.Decimal
	Target   domain.LinkTarget
}
