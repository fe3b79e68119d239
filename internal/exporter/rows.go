// Package exporter renders a stored budget as long-format rows, encodes
// them as CSV or a JSON document and writes the result to a sink.
package exporter

import (
	"cmp"
	"slices"

	"github.com/alexanderramin/budgetree/internal/budgettree"
	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
)

// Export is a ready-to-encode budget.
type Export struct {
	Dimensions []string
	Document   contract.Document
}

// Build flattens records into one long row per (line, month). The months
// are the budget's range joined with every bucket the records use. Export
// is refused while the records do not form a valid tree.
func Build(b *domain.Budget, records []domain.LineRecord) (*Export, error) {
	if _, err := budgettree.Build(records); err != nil {
		return nil, err
	}

	months := mergeMonths(b.Months(), domain.CollectBuckets(records))
	dims := exportDimensions(b, records)

	project := ""
	if b.Type == domain.BudgetProject {
		project = b.Project
	}

	rows := make([]contract.LongRow, 0, len(records)*len(months))
	for _, rec := range records {
		cells := make(map[string]string, len(dims))
		for _, d := range dims {
			cells[d] = rec.Dimensions[d].Joined(";")
		}
		for _, m := range months {
			rows = append(rows, contract.LongRow{
				Budget:     b.Name,
				Version:    b.Version,
				BudgetType: string(b.Type),
				Project:    project,
				Currency:   b.Currency,
				Code:       rec.Code,
				ParentCode: rec.ParentCode,
				Month:      m.FirstDay(),
				Item:       rec.Label,
				Planned:    rec.Value(m, domain.MetricPlanned),
				Dimensions: cells,
			})
		}
	}
	SortRows(rows)

	meta := contract.MetaFromBudget(b, months)
	meta.ExtraColumns = slices.Clone(dims)
	return &Export{
		Dimensions: dims,
		Document:   contract.Document{Meta: meta, Data: rows},
	}, nil
}

// SortRows orders rows by Item, then Month, then Code.
func SortRows(rows []contract.LongRow) {
	slices.SortStableFunc(rows, func(a, b contract.LongRow) int {
		return cmp.Or(
			cmp.Compare(a.Item, b.Item),
			cmp.Compare(a.Month, b.Month),
			cmp.Compare(a.Code, b.Code),
		)
	})
}

func mergeMonths(a, b []domain.BucketKey) []domain.BucketKey {
	out := append(slices.Clone(a), b...)
	slices.Sort(out)
	return slices.Compact(out)
}

// exportDimensions keeps the budget's declared column order and appends any
// dimension only found on records, sorted.
func exportDimensions(b *domain.Budget, records []domain.LineRecord) []string {
	dims := slices.Clone(b.Dimensions)
	seen := make(map[string]bool, len(dims))
	for _, d := range dims {
		seen[d] = true
	}
	var extra []string
	for _, r := range records {
		for _, name := range r.DimensionNames() {
			if !seen[name] {
				seen[name] = true
				extra = append(extra, name)
			}
		}
	}
	slices.Sort(extra)
	out := append(dims, extra...)
	if out == nil {
		out = []string{}
	}
	return out
}
