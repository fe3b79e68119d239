package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/budgetree/internal/db"
	"github.com/alexanderramin/budgetree/internal/domain"
)

// SQLiteBudgetRepo implements BudgetRepo using a SQLite database.
type SQLiteBudgetRepo struct {
	db db.DBTX
}

func NewSQLiteBudgetRepo(conn db.DBTX) *SQLiteBudgetRepo {
	return &SQLiteBudgetRepo{db: conn}
}

const budgetColumns = `id, name, version, type, project, currency, start_month, end_month, dimensions, created_at, updated_at`

func (r *SQLiteBudgetRepo) Create(ctx context.Context, b *domain.Budget) error {
	dims, err := encodeDimensions(b.Dimensions)
	if err != nil {
		return err
	}
	query := `INSERT INTO budgets (` + budgetColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		b.ID,
		b.Name,
		b.Version,
		string(b.Type),
		b.Project,
		b.Currency,
		string(b.StartMonth),
		string(b.EndMonth),
		dims,
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting budget: %w", err)
	}
	return nil
}

func (r *SQLiteBudgetRepo) GetByID(ctx context.Context, id string) (*domain.Budget, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id)
	return scanBudget(row)
}

func (r *SQLiteBudgetRepo) GetByName(ctx context.Context, name, version string) (*domain.Budget, error) {
	if version != "" {
		row := r.db.QueryRowContext(ctx,
			`SELECT `+budgetColumns+` FROM budgets WHERE name = ? AND version = ?`, name, version)
		return scanBudget(row)
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE name = ? ORDER BY updated_at DESC, version DESC LIMIT 1`, name)
	return scanBudget(row)
}

func (r *SQLiteBudgetRepo) List(ctx context.Context) ([]*domain.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY name, version`)
	if err != nil {
		return nil, fmt.Errorf("listing budgets: %w", err)
	}
	defer rows.Close()

	var budgets []*domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating budgets: %w", err)
	}
	return budgets, nil
}

func (r *SQLiteBudgetRepo) Update(ctx context.Context, b *domain.Budget) error {
	dims, err := encodeDimensions(b.Dimensions)
	if err != nil {
		return err
	}
	query := `UPDATE budgets SET name = ?, version = ?, type = ?, project = ?, currency = ?,
		start_month = ?, end_month = ?, dimensions = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		b.Name,
		b.Version,
		string(b.Type),
		b.Project,
		b.Currency,
		string(b.StartMonth),
		string(b.EndMonth),
		dims,
		formatTime(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return fmt.Errorf("updating budget: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("budget %s: %w", b.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteBudgetRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting budget: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("budget %s: %w", id, ErrNotFound)
	}
	return nil
}

func scanBudget(s rowScanner) (*domain.Budget, error) {
	var b domain.Budget
	var typ, start, end, dims, created, updated string
	err := s.Scan(&b.ID, &b.Name, &b.Version, &typ, &b.Project, &b.Currency,
		&start, &end, &dims, &created, &updated)
	if err != nil {
		return nil, notFound(err, "budget")
	}
	b.Type = domain.BudgetType(typ)
	b.StartMonth = domain.BucketKey(start)
	b.EndMonth = domain.BucketKey(end)
	if err := json.Unmarshal([]byte(dims), &b.Dimensions); err != nil {
		return nil, fmt.Errorf("decoding budget dimensions: %w", err)
	}
	if b.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing budget created_at: %w", err)
	}
	if b.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parsing budget updated_at: %w", err)
	}
	return &b, nil
}

func encodeDimensions(dims []string) (string, error) {
	if dims == nil {
		dims = []string{}
	}
	raw, err := json.Marshal(dims)
	if err != nil {
		return "", fmt.Errorf("encoding budget dimensions: %w", err)
	}
	return string(raw), nil
}
