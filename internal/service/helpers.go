package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexanderramin/budgetree/internal/allocation"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/repository"
)

// Metrics receives engine counters. *metrics.Recorder satisfies it.
type Metrics interface {
	ObserveRecompute(d time.Duration, nodes int, err error)
	ObserveSettlement(dir domain.Direction, results []*allocation.Result)
	ObserveLinkRejected()
}

type noopMetrics struct{}

func (noopMetrics) ObserveRecompute(time.Duration, int, error)               {}
func (noopMetrics) ObserveSettlement(domain.Direction, []*allocation.Result) {}
func (noopMetrics) ObserveLinkRejected()                                     {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}

// splitErrors flattens a *domain.ValidationError into its parts.
func splitErrors(err error) []error {
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Errs
	}
	return []error{err}
}

// resolveBudget finds a budget by ID, name@version, name or unique ID prefix.
func resolveBudget(ctx context.Context, budgets repository.BudgetRepo, ref string) (*domain.Budget, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("budget reference is required")
	}

	b, err := budgets.GetByID(ctx, ref)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	name, version, _ := strings.Cut(ref, "@")
	b, err = budgets.GetByName(ctx, name, version)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	all, err := budgets.List(ctx)
	if err != nil {
		return nil, err
	}
	var matches []*domain.Budget
	for _, candidate := range all {
		if strings.HasPrefix(candidate.ID, ref) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("budget %q: %w", ref, repository.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return nil, fmt.Errorf("budget reference %q is ambiguous (%d matches)", ref, len(matches))
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
