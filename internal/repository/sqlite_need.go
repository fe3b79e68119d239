package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/budgetree/internal/db"
	"github.com/alexanderramin/budgetree/internal/domain"
)

// SQLiteNeedRepo implements NeedRepo using a SQLite database.
type SQLiteNeedRepo struct {
	db db.DBTX
}

func NewSQLiteNeedRepo(conn db.DBTX) *SQLiteNeedRepo {
	return &SQLiteNeedRepo{db: conn}
}

const requestColumns = `id, title, requester, project_id, date, notes, created_at`

func (r *SQLiteNeedRepo) CreateRequest(ctx context.Context, req *domain.NeedRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO need_requests (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.Title,
		req.Requester,
		req.ProjectID,
		req.Date.Format(dateLayout),
		req.Notes,
		formatTime(req.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting need request: %w", err)
	}
	return nil
}

func (r *SQLiteNeedRepo) GetRequest(ctx context.Context, id string) (*domain.NeedRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM need_requests WHERE id = ?`, id)
	return scanRequest(row)
}

func (r *SQLiteNeedRepo) ListRequests(ctx context.Context) ([]*domain.NeedRequest, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+requestColumns+` FROM need_requests ORDER BY date, created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing need requests: %w", err)
	}
	defer rows.Close()

	var out []*domain.NeedRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating need requests: %w", err)
	}
	return out, nil
}

func scanRequest(s rowScanner) (*domain.NeedRequest, error) {
	var req domain.NeedRequest
	var date, created string
	if err := s.Scan(&req.ID, &req.Title, &req.Requester, &req.ProjectID, &date, &req.Notes, &created); err != nil {
		return nil, notFound(err, "need request")
	}
	var err error
	if req.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("parsing need request date: %w", err)
	}
	if req.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing need request created_at: %w", err)
	}
	return &req, nil
}

const lineColumns = `id, request_id, resource_id, quantity, unit, project_id, wbs_id, boq_id, boq_item_id, boq_detail_id, notes`

func (r *SQLiteNeedRepo) CreateLine(ctx context.Context, l *domain.NeedLine) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO need_lines (`+lineColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		l.RequestID,
		l.ResourceID,
		l.Quantity,
		l.Unit,
		l.ProjectID,
		l.WBSID,
		l.BOQID,
		l.BOQItemID,
		l.BOQDetailID,
		l.Notes,
	)
	if err != nil {
		return fmt.Errorf("inserting need line: %w", err)
	}
	return nil
}

func (r *SQLiteNeedRepo) GetLine(ctx context.Context, id string) (*domain.NeedLine, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+lineColumns+` FROM need_lines WHERE id = ?`, id)
	l, err := scanLine(row)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *SQLiteNeedRepo) ListLines(ctx context.Context, requestID string) ([]domain.NeedLine, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+lineColumns+` FROM need_lines WHERE request_id = ? ORDER BY rowid`, requestID)
	if err != nil {
		return nil, fmt.Errorf("listing need lines: %w", err)
	}
	defer rows.Close()

	var out []domain.NeedLine
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating need lines: %w", err)
	}
	return out, nil
}

func scanLine(s rowScanner) (domain.NeedLine, error) {
	var l domain.NeedLine
	err := s.Scan(&l.ID, &l.RequestID, &l.ResourceID, &l.Quantity, &l.Unit, &l.ProjectID,
		&l.WBSID, &l.BOQID, &l.BOQItemID, &l.BOQDetailID, &l.Notes)
	if err != nil {
		return domain.NeedLine{}, notFound(err, "need line")
	}
	return l, nil
}

// SQLiteLinkRepo implements LinkRepo using a SQLite database.
type SQLiteLinkRepo struct {
	db db.DBTX
}

func NewSQLiteLinkRepo(conn db.DBTX) *SQLiteLinkRepo {
	return &SQLiteLinkRepo{db: conn}
}

const linkColumns = `id, source_line_id, boq_id, boq_item_id, boq_detail_id, wbs_id, linked_quantity, created_at`

func (r *SQLiteLinkRepo) Create(ctx context.Context, l *domain.AllocationLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO allocation_links (`+linkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID,
		l.SourceLineID,
		l.Target.BOQID,
		l.Target.ItemID,
		l.Target.DetailID,
		l.Target.WBSID,
		l.LinkedQuantity,
		formatTime(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting allocation link: %w", err)
	}
	return nil
}

func (r *SQLiteLinkRepo) ListBySource(ctx context.Context, sourceLineID string) ([]domain.AllocationLink, error) {
	return r.list(ctx, `SELECT `+linkColumns+` FROM allocation_links
		WHERE source_line_id = ? ORDER BY created_at, rowid`, sourceLineID)
}

func (r *SQLiteLinkRepo) ListByRequest(ctx context.Context, requestID string) ([]domain.AllocationLink, error) {
	return r.list(ctx, `SELECT a.id, a.source_line_id, a.boq_id, a.boq_item_id, a.boq_detail_id, a.wbs_id,
			a.linked_quantity, a.created_at
		FROM allocation_links a JOIN need_lines l ON l.id = a.source_line_id
		WHERE l.request_id = ? ORDER BY a.created_at, a.rowid`, requestID)
}

func (r *SQLiteLinkRepo) list(ctx context.Context, query string, arg string) ([]domain.AllocationLink, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("listing allocation links: %w", err)
	}
	defer rows.Close()

	var out []domain.AllocationLink
	for rows.Next() {
		var l domain.AllocationLink
		var created string
		if err := rows.Scan(&l.ID, &l.SourceLineID, &l.Target.BOQID, &l.Target.ItemID,
			&l.Target.DetailID, &l.Target.WBSID, &l.LinkedQuantity, &created); err != nil {
			return nil, fmt.Errorf("scanning allocation link: %w", err)
		}
		if l.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parsing allocation link created_at: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocation links: %w", err)
	}
	return out, nil
}
