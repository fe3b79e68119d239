package importer

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/budgetree/internal/domain"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02", "02-01-2006", "02/01/2006", time.RFC3339}

func parseDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", cell)
}

func requireColumns(cols map[string]int) []error {
	var errs []error
	for _, name := range sortedKeys(cols) {
		if cols[name] < 0 {
			errs = append(errs, fmt.Errorf("missing required column %q", name))
		}
	}
	return errs
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}

// ParseInvoices reads InvoiceNo, Counterparty, Date, DueDate and Amount
// columns. Date is optional and defaults to DueDate.
func ParseInvoices(t *Table, dir domain.Direction) ([]domain.Invoice, []error) {
	cols := map[string]int{
		"InvoiceNo":    t.Column("InvoiceNo", "Invoice", "InvoiceNumber"),
		"Counterparty": t.Column("Counterparty", "Client", "Supplier", "Party"),
		"DueDate":      t.Column("DueDate", "Due"),
		"Amount":       t.Column("Amount"),
	}
	if errs := requireColumns(cols); len(errs) > 0 {
		return nil, errs
	}
	issueCol := t.Column("Date", "IssueDate")

	var out []domain.Invoice
	var errs []error
	seen := make(map[string]int)
	for ri, row := range t.Rows {
		line := t.Line(ri)
		inv := domain.Invoice{
			InvoiceNo:    t.Cell(row, cols["InvoiceNo"]),
			Counterparty: t.Cell(row, cols["Counterparty"]),
			Direction:    dir,
		}
		ok := true
		if inv.InvoiceNo == "" {
			errs = append(errs, cellError(line, "InvoiceNo", "invoice number is required"))
			ok = false
		} else {
			key := inv.Counterparty + "\x1f" + inv.InvoiceNo
			if prev, dup := seen[key]; dup {
				errs = append(errs, cellError(line, "InvoiceNo", "duplicate invoice %q for %q (first on row %d)", inv.InvoiceNo, inv.Counterparty, prev))
				ok = false
			}
			seen[key] = line
		}
		due, err := parseDate(t.Cell(row, cols["DueDate"]))
		if err != nil {
			errs = append(errs, cellError(line, "DueDate", "%v", err))
			ok = false
		}
		inv.DueDate = due
		inv.IssueDate = due
		if issueCol >= 0 && t.Cell(row, issueCol) != "" {
			issued, err := parseDate(t.Cell(row, issueCol))
			if err != nil {
				errs = append(errs, cellError(line, t.Headers[issueCol], "%v", err))
				ok = false
			}
			inv.IssueDate = issued
		}
		amount, err := parseAmount(t.Cell(row, cols["Amount"]))
		if err != nil {
			errs = append(errs, cellError(line, "Amount", "%v", err))
			ok = false
		} else if amount.IsNegative() {
			errs = append(errs, cellError(line, "Amount", "amount %s must not be negative", amount))
			ok = false
		}
		inv.Amount = amount
		if ok {
			out = append(out, inv)
		}
	}
	return out, errs
}

// ParsePayments reads PaymentNo, Counterparty, Date, Amount, Method and
// Status columns. Method is optional.
func ParsePayments(t *Table, dir domain.Direction) ([]domain.Payment, []error) {
	cols := map[string]int{
		"PaymentNo":    t.Column("PaymentNo", "Payment", "PaymentNumber"),
		"Counterparty": t.Column("Counterparty", "Client", "Supplier", "Party"),
		"Date":         t.Column("Date", "PaymentDate"),
		"Amount":       t.Column("Amount"),
		"Status":       t.Column("Status"),
	}
	if errs := requireColumns(cols); len(errs) > 0 {
		return nil, errs
	}
	methodCol := t.Column("Method")

	var out []domain.Payment
	var errs []error
	for ri, row := range t.Rows {
		line := t.Line(ri)
		p := domain.Payment{
			PaymentNo:    t.Cell(row, cols["PaymentNo"]),
			Counterparty: t.Cell(row, cols["Counterparty"]),
			Direction:    dir,
			Method:       t.Cell(row, methodCol),
		}
		ok := true
		if p.PaymentNo == "" {
			errs = append(errs, cellError(line, "PaymentNo", "payment number is required"))
			ok = false
		}
		date, err := parseDate(t.Cell(row, cols["Date"]))
		if err != nil {
			errs = append(errs, cellError(line, "Date", "%v", err))
			ok = false
		}
		p.Date = date
		amount, err := parseAmount(t.Cell(row, cols["Amount"]))
		if err != nil {
			errs = append(errs, cellError(line, "Amount", "%v", err))
			ok = false
		} else if amount.IsNegative() {
			errs = append(errs, cellError(line, "Amount", "amount %s must not be negative", amount))
			ok = false
		}
		p.Amount = amount
		status, err := domain.ParsePaymentStatus(t.Cell(row, cols["Status"]))
		if err != nil {
			errs = append(errs, cellError(line, "Status", "%v", err))
			ok = false
		}
		p.Status = status
		if ok {
			out = append(out, p)
		}
	}
	return out, errs
}
