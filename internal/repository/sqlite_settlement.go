package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/budgetree/internal/db"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
)

// SQLiteInvoiceRepo implements InvoiceRepo using a SQLite database.
type SQLiteInvoiceRepo struct {
	db db.DBTX
}

func NewSQLiteInvoiceRepo(conn db.DBTX) *SQLiteInvoiceRepo {
	return &SQLiteInvoiceRepo{db: conn}
}

func (r *SQLiteInvoiceRepo) Upsert(ctx context.Context, inv *domain.Invoice) error {
	query := `INSERT INTO invoices (id, direction, invoice_no, counterparty, issue_date, due_date, amount, settled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(direction, counterparty, invoice_no) DO UPDATE SET
			issue_date = excluded.issue_date,
			due_date = excluded.due_date,
			amount = excluded.amount
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		inv.ID,
		string(inv.Direction),
		inv.InvoiceNo,
		inv.Counterparty,
		inv.IssueDate.Format(dateLayout),
		inv.DueDate.Format(dateLayout),
		inv.Amount,
		inv.Settled,
	).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("upserting invoice %s: %w", inv.InvoiceNo, err)
	}
	return nil
}

// List returns invoices in due-date order. An empty counterparty matches all.
func (r *SQLiteInvoiceRepo) List(ctx context.Context, dir domain.Direction, counterparty string) ([]domain.Invoice, error) {
	query := `SELECT id, direction, invoice_no, counterparty, issue_date, due_date, amount, settled
		FROM invoices WHERE direction = ? AND (? = '' OR counterparty = ?)
		ORDER BY counterparty, due_date, invoice_no`
	rows, err := r.db.QueryContext(ctx, query, string(dir), counterparty, counterparty)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var inv domain.Invoice
		var direction, issued, due string
		if err := rows.Scan(&inv.ID, &direction, &inv.InvoiceNo, &inv.Counterparty,
			&issued, &due, &inv.Amount, &inv.Settled); err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}
		inv.Direction = domain.Direction(direction)
		if inv.IssueDate, err = parseDate(issued); err != nil {
			return nil, fmt.Errorf("parsing invoice issue_date: %w", err)
		}
		if inv.DueDate, err = parseDate(due); err != nil {
			return nil, fmt.Errorf("parsing invoice due_date: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}
	return invoices, nil
}

func (r *SQLiteInvoiceRepo) UpdateSettled(ctx context.Context, id string, settled decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `UPDATE invoices SET settled = ? WHERE id = ?`, settled, id)
	if err != nil {
		return fmt.Errorf("updating invoice settlement: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("invoice %s: %w", id, ErrNotFound)
	}
	return nil
}

// SQLitePaymentRepo implements PaymentRepo using a SQLite database.
type SQLitePaymentRepo struct {
	db db.DBTX
}

func NewSQLitePaymentRepo(conn db.DBTX) *SQLitePaymentRepo {
	return &SQLitePaymentRepo{db: conn}
}

func (r *SQLitePaymentRepo) Upsert(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, direction, payment_no, counterparty, date, amount, method, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(direction, counterparty, payment_no) DO UPDATE SET
			date = excluded.date,
			amount = excluded.amount,
			method = excluded.method,
			status = excluded.status
		RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		p.ID,
		string(p.Direction),
		p.PaymentNo,
		p.Counterparty,
		p.Date.Format(dateLayout),
		p.Amount,
		p.Method,
		string(p.Status),
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("upserting payment %s: %w", p.PaymentNo, err)
	}
	return nil
}

func (r *SQLitePaymentRepo) List(ctx context.Context, dir domain.Direction, counterparty string) ([]domain.Payment, error) {
	query := `SELECT id, direction, payment_no, counterparty, date, amount, method, status
		FROM payments WHERE direction = ? AND (? = '' OR counterparty = ?)
		ORDER BY counterparty, date, payment_no`
	rows, err := r.db.QueryContext(ctx, query, string(dir), counterparty, counterparty)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var p domain.Payment
		var direction, date, status string
		if err := rows.Scan(&p.ID, &direction, &p.PaymentNo, &p.Counterparty,
			&date, &p.Amount, &p.Method, &status); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}
		p.Direction = domain.Direction(direction)
		p.Status = domain.PaymentStatus(status)
		if p.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("parsing payment date: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}
	return payments, nil
}
