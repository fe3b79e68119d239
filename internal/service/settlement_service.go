package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/budgetree/internal/allocation"
	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/db"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/importer"
	blog "github.com/alexanderramin/budgetree/internal/log"
	"github.com/alexanderramin/budgetree/internal/repository"
	"github.com/google/uuid"
)

type settlementService struct {
	invoices repository.InvoiceRepo
	payments repository.PaymentRepo
	uow      db.UnitOfWork
	metrics  Metrics
	observer UseCaseObserver
}

func NewSettlementService(
	invoices repository.InvoiceRepo,
	payments repository.PaymentRepo,
	uow db.UnitOfWork,
	metrics Metrics,
	observers ...UseCaseObserver,
) SettlementService {
	return &settlementService{
		invoices: invoices,
		payments: payments,
		uow:      uow,
		metrics:  metricsOrNoop(metrics),
		observer: firstObserver(observers),
	}
}

func (s *settlementService) ImportInvoices(ctx context.Context, path string, dir domain.Direction) (resp *contract.LedgerImportResponse, err error) {
	fields := map[string]any{"path": path, blog.FieldDirection: string(dir)}
	done := track(ctx, s.observer, "import-invoices", fields)
	defer func() { done(err) }()

	table, err := importer.LoadTable(path, "")
	if err != nil {
		return nil, err
	}
	invoices, errs := importer.ParseInvoices(table, dir)
	if len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txInvoices := repository.NewSQLiteInvoiceRepo(tx)
		for i := range invoices {
			invoices[i].ID = uuid.New().String()
			if err := txInvoices.Upsert(ctx, &invoices[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["imported"] = len(invoices)
	return &contract.LedgerImportResponse{Direction: dir, Imported: len(invoices)}, nil
}

func (s *settlementService) ImportPayments(ctx context.Context, path string, dir domain.Direction) (resp *contract.LedgerImportResponse, err error) {
	fields := map[string]any{"path": path, blog.FieldDirection: string(dir)}
	done := track(ctx, s.observer, "import-payments", fields)
	defer func() { done(err) }()

	table, err := importer.LoadTable(path, "")
	if err != nil {
		return nil, err
	}
	payments, errs := importer.ParsePayments(table, dir)
	if len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txPayments := repository.NewSQLitePaymentRepo(tx)
		for i := range payments {
			payments[i].ID = uuid.New().String()
			if err := txPayments.Upsert(ctx, &payments[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["imported"] = len(payments)
	return &contract.LedgerImportResponse{Direction: dir, Imported: len(payments)}, nil
}

// Run settles the selected counterparties from scratch. Stored settled
// amounts are overwritten with the engine's result in one transaction.
func (s *settlementService) Run(ctx context.Context, req contract.SettleRequest) (resp *contract.SettleResponse, err error) {
	fields := map[string]any{blog.FieldDirection: string(req.Direction)}
	if req.Counterparty != "" {
		fields["counterparty"] = req.Counterparty
	}
	done := track(ctx, s.observer, "settle", fields)
	defer func() { done(err) }()

	if req.Direction != domain.Receivable && req.Direction != domain.Payable {
		return nil, fmt.Errorf("invalid direction %q: expected receivable or payable", req.Direction)
	}

	var results []*allocation.Result
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txInvoices := repository.NewSQLiteInvoiceRepo(tx)
		txPayments := repository.NewSQLitePaymentRepo(tx)

		invoices, err := txInvoices.List(ctx, req.Direction, req.Counterparty)
		if err != nil {
			return err
		}
		payments, err := txPayments.List(ctx, req.Direction, req.Counterparty)
		if err != nil {
			return err
		}
		results, err = allocation.AllocateByCounterparty(invoices, payments, req.Direction)
		if err != nil {
			return err
		}
		for _, res := range results {
			for _, inv := range res.Invoices {
				if err := txInvoices.UpdateSettled(ctx, inv.ID, inv.Settled); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settling %s: %w", req.Direction, err)
	}

	s.metrics.ObserveSettlement(req.Direction, results)
	resp = &contract.SettleResponse{Direction: req.Direction, Results: results}
	for _, res := range results {
		resp.Warnings = append(resp.Warnings, res.Warnings()...)
	}
	fields["counterparties"] = len(results)
	fields["warnings"] = len(resp.Warnings)
	return resp, nil
}
