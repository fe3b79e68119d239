package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/budgetree/internal/allocation"
	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/db"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/repository"
	"github.com/google/uuid"
)

type needService struct {
	needs    repository.NeedRepo
	links    repository.LinkRepo
	uow      db.UnitOfWork
	metrics  Metrics
	observer UseCaseObserver
}

func NewNeedService(
	needs repository.NeedRepo,
	links repository.LinkRepo,
	uow db.UnitOfWork,
	metrics Metrics,
	observers ...UseCaseObserver,
) NeedService {
	return &needService{
		needs:    needs,
		links:    links,
		uow:      uow,
		metrics:  metricsOrNoop(metrics),
		observer: firstObserver(observers),
	}
}

func (s *needService) CreateRequest(ctx context.Context, r *domain.NeedRequest) error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("need request title is required")
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Second)
	if r.Date.IsZero() {
		r.Date = now
	}
	r.CreatedAt = now
	return s.needs.CreateRequest(ctx, r)
}

func (s *needService) ListRequests(ctx context.Context) ([]*domain.NeedRequest, error) {
	return s.needs.ListRequests(ctx)
}

// AddLine stores a line on an existing request. A line without a project
// takes the request's project.
func (s *needService) AddLine(ctx context.Context, l *domain.NeedLine) (err error) {
	done := track(ctx, s.observer, "add-need-line", map[string]any{"request": l.RequestID})
	defer func() { done(err) }()

	req, err := s.needs.GetRequest(ctx, l.RequestID)
	if err != nil {
		return err
	}
	l.ProjectID = domain.CoalesceStr(l.ProjectID, req.ProjectID)
	if errs := l.Validate(); len(errs) > 0 {
		return formatValidationErrors(errs)
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return s.needs.CreateLine(ctx, l)
}

// Link records a quantity link when the line's linked total stays within
// its requested quantity. Existing links are replayed through a LinkBook so
// the check runs against stored state inside the same transaction.
func (s *needService) Link(ctx context.Context, req contract.LinkRequest) (link *domain.AllocationLink, err error) {
	fields := map[string]any{"line": req.LineID, "quantity": req.Quantity.String()}
	done := track(ctx, s.observer, "link-need-line", fields)
	defer func() { done(err) }()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txNeeds := repository.NewSQLiteNeedRepo(tx)
		txLinks := repository.NewSQLiteLinkRepo(tx)

		line, err := txNeeds.GetLine(ctx, req.LineID)
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.UnknownSourceLineError{SourceLineID: req.LineID}
		}
		if err != nil {
			return err
		}
		existing, err := txLinks.ListBySource(ctx, line.ID)
		if err != nil {
			return err
		}

		book := allocation.NewLinkBook(allocation.RequestedQuantities([]domain.NeedLine{*line}))
		if _, rejected := book.AddAll(existing); len(rejected) > 0 {
			return fmt.Errorf("stored links of line %s are inconsistent: %w", line.ID, rejected[0].Err)
		}

		candidate := domain.AllocationLink{
			ID:             uuid.New().String(),
			SourceLineID:   line.ID,
			Target:         req.Target,
			LinkedQuantity: req.Quantity,
			CreatedAt:      time.Now().UTC().Truncate(time.Second),
		}
		if err := book.Add(candidate); err != nil {
			s.metrics.ObserveLinkRejected()
			return err
		}
		if err := txLinks.Create(ctx, &candidate); err != nil {
			return err
		}
		fields["remaining"] = book.Remaining(line.ID).String()
		link = &candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// Show returns the request with per-line linked and remaining quantities.
func (s *needService) Show(ctx context.Context, requestID string) (*contract.NeedRequestView, error) {
	req, err := s.needs.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	lines, err := s.needs.ListLines(ctx, requestID)
	if err != nil {
		return nil, err
	}
	links, err := s.links.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	book := allocation.NewLinkBook(allocation.RequestedQuantities(lines))
	book.AddAll(links)

	view := &contract.NeedRequestView{Request: req, Links: links}
	for _, l := range lines {
		view.Lines = append(view.Lines, contract.NeedLineView{
			Line:      l,
			Linked:    book.Linked(l.ID),
			Remaining: book.Remaining(l.ID),
		})
	}
	return view, nil
}
