// Package allocation settles invoices against payments oldest-due-first and
// keeps need-request quantity links within their requested limits.
package allocation

import (
	"cmp"
	"slices"
	"strings"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
)

// Application is one slice of a payment applied to one invoice.
type Application struct {
	PaymentNo string
	InvoiceNo string
	Amount    decimal.Decimal
}

// Residual is the part of an eligible payment left after every invoice was settled.
type Residual struct {
	PaymentNo string
	Amount    decimal.Decimal
}

type Result struct {
	Counterparty string
	Direction    domain.Direction
	// Invoices are copies in settlement order with Settled filled in.
	Invoices     []domain.Invoice
	Applications []Application
	Residuals    []Residual
	// Ineligible holds payments whose status does not settle anything.
	Ineligible []domain.Payment

	TotalEligible    decimal.Decimal
	TotalSettled     decimal.Decimal
	TotalOutstanding decimal.Decimal
	TotalResidual    decimal.Decimal
}

// Warnings reports one OverpaymentResidual per residual.
func (r *Result) Warnings() []domain.Warning {
	out := make([]domain.Warning, 0, len(r.Residuals))
	for _, res := range r.Residuals {
		out = append(out, domain.OverpaymentResidual(res.PaymentNo, res.Amount))
	}
	return out
}

// StatusTotal is the summed amount of the payments sharing one status.
type StatusTotal struct {
	Status domain.PaymentStatus
	Count  int
	Amount decimal.Decimal
}

// PendingByStatus totals the ineligible payments per status, ordered by
// status name. These are balances still in the pipeline, such as cheques
// under collection or held in treasury.
func (r *Result) PendingByStatus() []StatusTotal {
	return SumByStatus(r.Ineligible)
}

// SumByStatus totals payments per status, ordered by status name.
func SumByStatus(payments []domain.Payment) []StatusTotal {
	idx := make(map[domain.PaymentStatus]int)
	var out []StatusTotal
	for _, p := range payments {
		i, ok := idx[p.Status]
		if !ok {
			i = len(out)
			idx[p.Status] = i
			out = append(out, StatusTotal{Status: p.Status, Amount: decimal.Zero})
		}
		out[i].Count++
		out[i].Amount = out[i].Amount.Add(p.Amount)
	}
	slices.SortFunc(out, func(a, b StatusTotal) int { return cmp.Compare(a.Status, b.Status) })
	return out
}

// Invoice returns the settled copy of invoiceNo.
func (r *Result) Invoice(invoiceNo string) (domain.Invoice, bool) {
	for _, inv := range r.Invoices {
		if inv.InvoiceNo == invoiceNo {
			return inv, true
		}
	}
	return domain.Invoice{}, false
}

// SortInvoices returns a copy ordered by due date, then invoice number.
func SortInvoices(invoices []domain.Invoice) []domain.Invoice {
	out := slices.Clone(invoices)
	slices.SortStableFunc(out, func(a, b domain.Invoice) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return strings.Compare(a.InvoiceNo, b.InvoiceNo)
	})
	return out
}

// AllocateFIFO settles invoices of a single counterparty. Eligible payments
// are applied in the order given, each walking the invoices oldest-due-first
// and covering min(remaining, outstanding) per invoice. Neither input slice
// is modified; any Settled value already on an invoice is discarded.
func AllocateFIFO(invoices []domain.Invoice, payments []domain.Payment, dir domain.Direction) (*Result, error) {
	if errs := checkAmounts(invoices, payments); len(errs) > 0 {
		return nil, &domain.ValidationError{Errs: errs}
	}

	res := &Result{
		Direction:        dir,
		Invoices:         SortInvoices(invoices),
		TotalEligible:    decimal.Zero,
		TotalSettled:     decimal.Zero,
		TotalOutstanding: decimal.Zero,
		TotalResidual:    decimal.Zero,
	}
	if len(invoices) > 0 {
		res.Counterparty = invoices[0].Counterparty
	} else if len(payments) > 0 {
		res.Counterparty = payments[0].Counterparty
	}
	for i := range res.Invoices {
		res.Invoices[i].Settled = decimal.Zero
	}

	for _, p := range payments {
		if !p.Eligible(dir) {
			res.Ineligible = append(res.Ineligible, p)
			continue
		}
		res.TotalEligible = res.TotalEligible.Add(p.Amount)

		remaining := p.Amount
		for i := range res.Invoices {
			if !remaining.IsPositive() {
				break
			}
			inv := &res.Invoices[i]
			outstanding := inv.Outstanding()
			if !outstanding.IsPositive() {
				continue
			}
			applied := decimal.Min(remaining, outstanding)
			inv.Settled = inv.Settled.Add(applied)
			remaining = remaining.Sub(applied)
			res.Applications = append(res.Applications, Application{PaymentNo: p.PaymentNo, InvoiceNo: inv.InvoiceNo, Amount: applied})
		}
		if remaining.IsPositive() {
			res.Residuals = append(res.Residuals, Residual{PaymentNo: p.PaymentNo, Amount: remaining})
			res.TotalResidual = res.TotalResidual.Add(remaining)
		}
	}

	for _, inv := range res.Invoices {
		res.TotalSettled = res.TotalSettled.Add(inv.Settled)
		res.TotalOutstanding = res.TotalOutstanding.Add(inv.Outstanding())
	}
	return res, nil
}

// AllocateByCounterparty groups invoices and payments by counterparty and
// runs AllocateFIFO for each group. Results are ordered by counterparty.
func AllocateByCounterparty(invoices []domain.Invoice, payments []domain.Payment, dir domain.Direction) ([]*Result, error) {
	if errs := checkAmounts(invoices, payments); len(errs) > 0 {
		return nil, &domain.ValidationError{Errs: errs}
	}

	invByCP := make(map[string][]domain.Invoice)
	payByCP := make(map[string][]domain.Payment)
	var names []string
	track := func(name string) {
		if _, ok := invByCP[name]; ok {
			return
		}
		if _, ok := payByCP[name]; ok {
			return
		}
		names = append(names, name)
	}
	for _, inv := range invoices {
		track(inv.Counterparty)
		invByCP[inv.Counterparty] = append(invByCP[inv.Counterparty], inv)
	}
	for _, p := range payments {
		track(p.Counterparty)
		payByCP[p.Counterparty] = append(payByCP[p.Counterparty], p)
	}
	slices.SortFunc(names, cmp.Compare[string])

	out := make([]*Result, 0, len(names))
	for _, name := range names {
		res, err := AllocateFIFO(invByCP[name], payByCP[name], dir)
		if err != nil {
			return nil, err
		}
		res.Counterparty = name
		out = append(out, res)
	}
	return out, nil
}

func checkAmounts(invoices []domain.Invoice, payments []domain.Payment) []error {
	var errs []error
	for _, inv := range invoices {
		if inv.Amount.IsNegative() {
			errs = append(errs, &domain.InvalidAmountError{Field: "invoice", Ref: inv.InvoiceNo, Amount: inv.Amount})
		}
	}
	for _, p := range payments {
		if p.Amount.IsNegative() {
			errs = append(errs, &domain.InvalidAmountError{Field: "payment", Ref: p.PaymentNo, Amount: p.Amount})
		}
	}
	return errs
}
