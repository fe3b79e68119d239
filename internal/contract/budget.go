// Package contract defines the file interchange shapes shared by import and
// export: the long-format budget row and the {meta, data} JSON document.
package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
)

// Fixed long-format columns, in output order. Dimension columns follow.
var LongColumns = []string{
	"Budget", "Version", "BudgetType", "Project", "Currency",
	"Code", "ParentCode", "Month", "Item", "Planned",
}

// Header returns the long-format header for the given dimension columns.
func Header(dimensions []string) []string {
	return append(slices.Clone(LongColumns), dimensions...)
}

// LongRow is one (line, month) pair. Dimensions hold ';'-joined values.
type LongRow struct {
	Budget     string
	Version    string
	BudgetType string
	Project    string
	Currency   string
	Code       string
	ParentCode string
	Month      string
	Item       string
	Planned    decimal.Decimal
	Dimensions map[string]string
}

// Cells renders the row in Header(dimensions) order.
func (r LongRow) Cells(dimensions []string) []string {
	cells := []string{
		r.Budget, r.Version, r.BudgetType, r.Project, r.Currency,
		r.Code, r.ParentCode, r.Month, r.Item, r.Planned.String(),
	}
	for _, d := range dimensions {
		cells = append(cells, r.Dimensions[d])
	}
	return cells
}

// MarshalJSON writes a flat object with the fixed columns first, then the
// dimensions sorted by name. Planned is written as a JSON number.
func (r LongRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	fields := []struct {
		key   string
		value any
	}{
		{"Budget", r.Budget}, {"Version", r.Version}, {"BudgetType", r.BudgetType},
		{"Project", r.Project}, {"Currency", r.Currency}, {"Code", r.Code},
		{"ParentCode", r.ParentCode}, {"Month", r.Month}, {"Item", r.Item},
		{"Planned", json.Number(r.Planned.String())},
	}
	for _, f := range fields {
		if err := write(f.key, f.value); err != nil {
			return nil, err
		}
	}
	names := make([]string, 0, len(r.Dimensions))
	for name := range r.Dimensions {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if err := write(name, r.Dimensions[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *LongRow) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = LongRow{Dimensions: make(map[string]string)}
	targets := map[string]*string{
		"Budget": &r.Budget, "Version": &r.Version, "BudgetType": &r.BudgetType,
		"Project": &r.Project, "Currency": &r.Currency, "Code": &r.Code,
		"ParentCode": &r.ParentCode, "Month": &r.Month, "Item": &r.Item,
	}
	for key, value := range raw {
		if key == "Planned" {
			if err := r.Planned.UnmarshalJSON(value); err != nil {
				return fmt.Errorf("field Planned: %w", err)
			}
			continue
		}
		s, err := rawString(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		if dst, ok := targets[key]; ok {
			*dst = s
			continue
		}
		r.Dimensions[key] = s
	}
	return nil
}

// rawString accepts strings, numbers and null.
func rawString(raw json.RawMessage) (string, error) {
	if string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", string(raw))
	}
	return n.String(), nil
}

// Meta describes the budget a document belongs to.
type Meta struct {
	BudgetType   string   `json:"budget_type"`
	BudgetName   string   `json:"budget_name"`
	ProjectName  string   `json:"project_name"`
	Version      string   `json:"version"`
	Currency     string   `json:"currency"`
	StartMonth   string   `json:"start_month"`
	EndMonth     string   `json:"end_month"`
	MonthsCount  int      `json:"months_count"`
	ExtraColumns []string `json:"extra_columns"`
}

// Document is the JSON export: header plus long rows.
type Document struct {
	Meta Meta      `json:"meta"`
	Data []LongRow `json:"data"`
}

// MetaFromBudget builds the document header. months is the set of buckets
// actually exported.
func MetaFromBudget(b *domain.Budget, months []domain.BucketKey) Meta {
	m := Meta{
		BudgetType:   string(b.Type),
		BudgetName:   b.Name,
		ProjectName:  b.Project,
		Version:      b.Version,
		Currency:     b.Currency,
		MonthsCount:  len(months),
		ExtraColumns: slices.Clone(b.Dimensions),
	}
	if m.ExtraColumns == nil {
		m.ExtraColumns = []string{}
	}
	if len(months) > 0 {
		m.StartMonth = slices.Min(months).FirstDay()
		m.EndMonth = slices.Max(months).FirstDay()
	}
	return m
}

// Budget converts the header back into a budget. Month fields may be empty.
func (m Meta) Budget() (*domain.Budget, error) {
	bt, err := domain.ParseBudgetType(m.BudgetType)
	if err != nil {
		return nil, err
	}
	b := &domain.Budget{
		Name:       m.BudgetName,
		Version:    m.Version,
		Type:       bt,
		Project:    m.ProjectName,
		Currency:   m.Currency,
		Dimensions: slices.Clone(m.ExtraColumns),
	}
	if m.StartMonth != "" {
		if b.StartMonth, err = domain.ParseBucketKey(m.StartMonth); err != nil {
			return nil, fmt.Errorf("meta.start_month: %w", err)
		}
	}
	if m.EndMonth != "" {
		if b.EndMonth, err = domain.ParseBucketKey(m.EndMonth); err != nil {
			return nil, fmt.Errorf("meta.end_month: %w", err)
		}
	}
	return b, nil
}
