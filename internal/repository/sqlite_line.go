package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetree/internal/db"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
)

// SQLiteLineRepo stores line records across budget_lines, line_dimensions
// and line_buckets.
type SQLiteLineRepo struct {
	db db.DBTX
}

func NewSQLiteLineRepo(conn db.DBTX) *SQLiteLineRepo {
	return &SQLiteLineRepo{db: conn}
}

// multiSeparator joins multi-valued dimension cells in storage. It cannot
// occur inside a value because import splits on it.
const multiSeparator = ";"

// ReplaceAll is not atomic on its own; callers run it inside a unit of work.
func (r *SQLiteLineRepo) ReplaceAll(ctx context.Context, budgetID string, records []domain.LineRecord) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM budget_lines WHERE budget_id = ?`, budgetID); err != nil {
		return fmt.Errorf("clearing budget lines: %w", err)
	}

	for pos, rec := range records {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO budget_lines (budget_id, position, code, parent_code, label) VALUES (?, ?, ?, ?, ?)`,
			budgetID, pos, rec.Code, rec.ParentCode, rec.Label)
		if err != nil {
			return fmt.Errorf("inserting budget line %d: %w", pos, err)
		}
		lineID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading budget line id: %w", err)
		}

		for _, name := range rec.DimensionNames() {
			v := rec.Dimensions[name]
			_, err := r.db.ExecContext(ctx,
				`INSERT INTO line_dimensions (line_id, name, multi, value) VALUES (?, ?, ?, ?)`,
				lineID, name, boolToInt(v.IsMulti()), v.Joined(multiSeparator))
			if err != nil {
				return fmt.Errorf("inserting dimension %q of line %d: %w", name, pos, err)
			}
		}
		for _, b := range rec.BucketKeys() {
			v := rec.Buckets[b]
			_, err := r.db.ExecContext(ctx,
				`INSERT INTO line_buckets (line_id, bucket, planned, actual) VALUES (?, ?, ?, ?)`,
				lineID, string(b), v.Planned, v.Actual)
			if err != nil {
				return fmt.Errorf("inserting bucket %s of line %d: %w", b, pos, err)
			}
		}
	}
	return nil
}

func (r *SQLiteLineRepo) ListByBudget(ctx context.Context, budgetID string) ([]domain.LineRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, code, parent_code, label FROM budget_lines WHERE budget_id = ? ORDER BY position`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("listing budget lines: %w", err)
	}
	var records []domain.LineRecord
	byID := make(map[int64]int)
	for rows.Next() {
		var id int64
		rec := domain.LineRecord{
			Dimensions: make(map[string]domain.DimensionValue),
			Buckets:    make(map[domain.BucketKey]domain.BucketValues),
		}
		if err := rows.Scan(&id, &rec.Code, &rec.ParentCode, &rec.Label); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning budget line: %w", err)
		}
		byID[id] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating budget lines: %w", err)
	}
	rows.Close()

	if err := r.loadDimensions(ctx, budgetID, records, byID); err != nil {
		return nil, err
	}
	if err := r.loadBuckets(ctx, budgetID, records, byID); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *SQLiteLineRepo) loadDimensions(ctx context.Context, budgetID string, records []domain.LineRecord, byID map[int64]int) error {
	rows, err := r.db.QueryContext(ctx, `SELECT d.line_id, d.name, d.multi, d.value
		FROM line_dimensions d JOIN budget_lines l ON l.id = d.line_id
		WHERE l.budget_id = ?`, budgetID)
	if err != nil {
		return fmt.Errorf("listing line dimensions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lineID int64
		var name, value string
		var multi int
		if err := rows.Scan(&lineID, &name, &multi, &value); err != nil {
			return fmt.Errorf("scanning line dimension: %w", err)
		}
		var v domain.DimensionValue
		if multi != 0 {
			v = domain.MultiValue(strings.Split(value, multiSeparator)...)
		} else {
			v = domain.SingleValue(value)
		}
		records[byID[lineID]].Dimensions[name] = v
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating line dimensions: %w", err)
	}
	return nil
}

func (r *SQLiteLineRepo) loadBuckets(ctx context.Context, budgetID string, records []domain.LineRecord, byID map[int64]int) error {
	rows, err := r.db.QueryContext(ctx, `SELECT b.line_id, b.bucket, b.planned, b.actual
		FROM line_buckets b JOIN budget_lines l ON l.id = b.line_id
		WHERE l.budget_id = ?`, budgetID)
	if err != nil {
		return fmt.Errorf("listing line buckets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lineID int64
		var bucket string
		var planned, actual decimal.Decimal
		if err := rows.Scan(&lineID, &bucket, &planned, &actual); err != nil {
			return fmt.Errorf("scanning line bucket: %w", err)
		}
		records[byID[lineID]].Buckets[domain.BucketKey(bucket)] = domain.BucketValues{Planned: planned, Actual: actual}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating line buckets: %w", err)
	}
	return nil
}

func (r *SQLiteLineRepo) CountByBudget(ctx context.Context, budgetID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM budget_lines WHERE budget_id = ?`, budgetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting budget lines: %w", err)
	}
	return n, nil
}
