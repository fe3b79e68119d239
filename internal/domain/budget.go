package domain

import (
	"fmt"
	"strings"
	"time"
)

type BudgetType string

// DefaultCurrency applies when neither the file nor the caller names one.
const DefaultCurrency = "EGP"

const (
	BudgetCompany BudgetType = "Company"
	BudgetProject BudgetType = "Project"
)

func ParseBudgetType(s string) (BudgetType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "company":
		return BudgetCompany, nil
	case "project":
		return BudgetProject, nil
	}
	return "", fmt.Errorf("invalid budget type %q: expected Company or Project", s)
}

// Budget is the header of a set of budget lines.
type Budget struct {
	ID         string
	Name       string
	Version    string
	Type       BudgetType
	Project    string
	Currency   string
	StartMonth BucketKey
	EndMonth   BucketKey
	Dimensions []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Normalize trims fields, applies defaults and swaps a reversed month range.
func (b *Budget) Normalize() {
	b.Name = strings.TrimSpace(b.Name)
	b.Project = strings.TrimSpace(b.Project)
	b.Version = strings.TrimSpace(b.Version)
	b.Currency = strings.ToUpper(strings.TrimSpace(b.Currency))
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}
	if b.Version == "" {
		b.Version = "v1"
	}
	if b.Type == "" {
		b.Type = BudgetCompany
	}
	if b.StartMonth != "" && b.EndMonth != "" && b.EndMonth < b.StartMonth {
		b.StartMonth, b.EndMonth = b.EndMonth, b.StartMonth
	}
}

// Validate returns every problem with the header.
func (b *Budget) Validate() []error {
	var errs []error
	if strings.TrimSpace(b.Name) == "" {
		errs = append(errs, fmt.Errorf("budget name is required"))
	}
	if b.Type != BudgetCompany && b.Type != BudgetProject {
		errs = append(errs, fmt.Errorf("budget type %q must be Company or Project", b.Type))
	}
	if b.Type == BudgetProject && strings.TrimSpace(b.Project) == "" {
		errs = append(errs, fmt.Errorf("project name is required for Project budgets"))
	}
	for _, m := range []BucketKey{b.StartMonth, b.EndMonth} {
		if m == "" {
			continue
		}
		if _, err := ParseBucketKey(string(m)); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Months returns the buckets covered by the header, or nil when no range is set.
func (b *Budget) Months() []BucketKey {
	if b.StartMonth == "" || b.EndMonth == "" {
		return nil
	}
	return MonthRange(b.StartMonth, b.EndMonth)
}
