package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount reads a decimal cell. Blank cells are zero and ',' thousands
// separators are dropped.
func parseAmount(cell string) (decimal.Decimal, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.Zero, nil
	}
	cleaned := strings.ReplaceAll(cell, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", cell)
	}
	return d, nil
}

func cellError(row int, column, format string, args ...any) error {
	return fmt.Errorf("row %d column %q: %s", row, column, fmt.Sprintf(format, args...))
}
