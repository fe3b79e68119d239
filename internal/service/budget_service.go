package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/budgetree/internal/budgettree"
	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/db"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/exporter"
	"github.com/alexanderramin/budgetree/internal/importer"
	blog "github.com/alexanderramin/budgetree/internal/log"
	"github.com/alexanderramin/budgetree/internal/recompute"
	"github.com/alexanderramin/budgetree/internal/repository"
	"github.com/google/uuid"
)

type budgetService struct {
	budgets  repository.BudgetRepo
	lines    repository.LineRepo
	uow      db.UnitOfWork
	metrics  Metrics
	observer UseCaseObserver

	mu      sync.Mutex
	holders map[string]*recompute.Holder
}

func NewBudgetService(
	budgets repository.BudgetRepo,
	lines repository.LineRepo,
	uow db.UnitOfWork,
	metrics Metrics,
	observers ...UseCaseObserver,
) BudgetService {
	return &budgetService{
		budgets:  budgets,
		lines:    lines,
		uow:      uow,
		metrics:  metricsOrNoop(metrics),
		observer: firstObserver(observers),
		holders:  make(map[string]*recompute.Holder),
	}
}

func (s *budgetService) Import(ctx context.Context, req contract.ImportBudgetRequest) (report *contract.BudgetReport, err error) {
	fields := map[string]any{"path": req.Path}
	done := track(ctx, s.observer, "import-budget", fields)
	defer func() { done(err) }()

	lines, err := readLines(req)
	if err != nil {
		return nil, err
	}
	b, err := importHeader(req, lines)
	if err != nil {
		return nil, err
	}
	fields[blog.FieldBudget] = b.Name + "@" + b.Version
	fields["lines"] = len(lines.Records)

	now := time.Now().UTC().Truncate(time.Second)
	created := false
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txBudgets := repository.NewSQLiteBudgetRepo(tx)
		txLines := repository.NewSQLiteLineRepo(tx)

		existing, err := txBudgets.GetByName(ctx, b.Name, b.Version)
		switch {
		case err == nil:
			b.ID = existing.ID
			b.CreatedAt = existing.CreatedAt
			b.UpdatedAt = now
			if err := txBudgets.Update(ctx, b); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrNotFound):
			b.ID = uuid.New().String()
			b.CreatedAt = now
			b.UpdatedAt = now
			if err := txBudgets.Create(ctx, b); err != nil {
				return err
			}
			created = true
		default:
			return err
		}
		return txLines.ReplaceAll(ctx, b.ID, lines.Records)
	})
	if err != nil {
		return nil, fmt.Errorf("storing budget %s@%s: %w", b.Name, b.Version, err)
	}

	report = s.report(b, lines.Records)
	report.Created = created
	fields["valid"] = report.Valid()
	return report, nil
}

// readLines loads and parses the file, refusing it on any cell or column error.
func readLines(req contract.ImportBudgetRequest) (*importer.Lines, error) {
	format, err := importer.ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}
	if format == importer.FormatAuto && strings.EqualFold(filepath.Ext(req.Path), ".json") {
		format = importer.FormatJSON
	}
	opts := importer.Options{MultiDimensions: req.MultiDimensions}

	var lines *importer.Lines
	var errs []error
	if format == importer.FormatJSON {
		doc, err := importer.LoadDocument(req.Path)
		if err != nil {
			return nil, err
		}
		lines, errs = importer.ParseDocument(doc, opts)
	} else {
		table, err := importer.LoadTable(req.Path, req.Sheet)
		if err != nil {
			return nil, err
		}
		lines, errs = importer.ParseLines(table, format, opts)
	}
	if len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	return lines, nil
}

// importHeader merges the request over the file's metadata. The name falls
// back to the file name and the month range to the buckets present.
func importHeader(req contract.ImportBudgetRequest, lines *importer.Lines) (*domain.Budget, error) {
	b := &domain.Budget{}
	var errs []error
	if lines.Meta != nil {
		fromMeta, err := lines.Meta.Budget()
		if err != nil {
			errs = append(errs, err)
		} else {
			b = fromMeta
		}
	}

	b.Name = domain.CoalesceStr(req.Name, b.Name, fileStem(req.Path))
	b.Version = domain.CoalesceStr(req.Version, b.Version)
	b.Project = domain.CoalesceStr(req.Project, b.Project)
	b.Currency = domain.CoalesceStr(req.Currency, b.Currency)
	if strings.TrimSpace(req.Type) != "" {
		bt, err := domain.ParseBudgetType(req.Type)
		if err != nil {
			errs = append(errs, err)
		}
		b.Type = bt
	}
	if len(lines.Dimensions) > 0 {
		b.Dimensions = slices.Clone(lines.Dimensions)
	}
	if b.Dimensions == nil {
		b.Dimensions = []string{}
	}
	if len(lines.Buckets) > 0 {
		if b.StartMonth == "" {
			b.StartMonth = slices.Min(lines.Buckets)
		}
		if b.EndMonth == "" {
			b.EndMonth = slices.Max(lines.Buckets)
		}
	}

	b.Normalize()
	errs = append(errs, b.Validate()...)
	if len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}
	return b, nil
}

// report validates records and, when they form a tree, publishes a fresh
// derived state for the budget.
func (s *budgetService) report(b *domain.Budget, records []domain.LineRecord) *contract.BudgetReport {
	report := &contract.BudgetReport{Budget: b, Lines: len(records)}

	tree, err := budgettree.Build(records)
	if err != nil {
		report.Errors = splitErrors(err)
		return report
	}
	state, err := s.derive(b.ID, records)
	if err != nil {
		report.Errors = splitErrors(err)
		report.Warnings = tree.Warnings()
		return report
	}
	report.Warnings = state.Warnings()
	report.Revision = state.Revision
	report.Fingerprint = state.Fingerprint
	return report
}

func (s *budgetService) holder(budgetID string) *recompute.Holder {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holders[budgetID]
	if !ok {
		h = recompute.NewHolder(s.metrics)
		s.holders[budgetID] = h
	}
	return h
}

// derive reuses the published state while the records are unchanged.
func (s *budgetService) derive(budgetID string, records []domain.LineRecord) (*recompute.DerivedState, error) {
	h := s.holder(budgetID)
	if cur := h.Current(); cur != nil && cur.Fingerprint == recompute.Fingerprint(records) {
		return cur, nil
	}
	return h.Apply(records)
}

func (s *budgetService) List(ctx context.Context) ([]*domain.Budget, error) {
	return s.budgets.List(ctx)
}

func (s *budgetService) Resolve(ctx context.Context, ref string) (*domain.Budget, error) {
	return resolveBudget(ctx, s.budgets, ref)
}

func (s *budgetService) load(ctx context.Context, ref string) (*domain.Budget, []domain.LineRecord, error) {
	b, err := resolveBudget(ctx, s.budgets, ref)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.lines.ListByBudget(ctx, b.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading lines of %s: %w", b.Name, err)
	}
	return b, records, nil
}

func (s *budgetService) Validate(ctx context.Context, ref string) (report *contract.BudgetReport, err error) {
	fields := map[string]any{blog.FieldBudget: ref}
	done := track(ctx, s.observer, "validate-budget", fields)
	defer func() { done(err) }()

	b, records, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	report = s.report(b, records)
	fields["valid"] = report.Valid()
	fields["errors"] = len(report.Errors)
	return report, nil
}

func (s *budgetService) Derive(ctx context.Context, ref string) (*domain.Budget, *recompute.DerivedState, error) {
	b, records, err := s.load(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	state, err := s.derive(b.ID, records)
	if err != nil {
		return b, nil, fmt.Errorf("budget %s@%s: %w", b.Name, b.Version, err)
	}
	return b, state, nil
}

func (s *budgetService) Export(ctx context.Context, ref string, format exporter.Format, sink exporter.Sink) (err error) {
	fields := map[string]any{blog.FieldBudget: ref, "format": string(format), "target": sink.String()}
	done := track(ctx, s.observer, "export-budget", fields)
	defer func() { done(err) }()

	b, records, err := s.load(ctx, ref)
	if err != nil {
		return err
	}
	export, err := exporter.Build(b, records)
	if err != nil {
		return fmt.Errorf("budget %s@%s cannot be exported: %w", b.Name, b.Version, err)
	}
	body, err := exporter.Encode(export, format)
	if err != nil {
		return err
	}
	fields["rows"] = len(export.Document.Data)
	return sink.Put(ctx, body, format.ContentType())
}

func (s *budgetService) Remove(ctx context.Context, ref string) (err error) {
	fields := map[string]any{blog.FieldBudget: ref}
	done := track(ctx, s.observer, "remove-budget", fields)
	defer func() { done(err) }()

	b, err := resolveBudget(ctx, s.budgets, ref)
	if err != nil {
		return err
	}
	if err := s.budgets.Delete(ctx, b.ID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.holders, b.ID)
	s.mu.Unlock()
	return nil
}
