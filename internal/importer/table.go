// Package importer reads budget lines, invoices and payments from CSV, XLSX
// and JSON files. Parse functions return every problem found rather than
// stopping at the first one.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a header row plus data rows. Rows may be shorter than the header.
type Table struct {
	Headers []string
	Rows    [][]string
	// lines holds the 1-based file row of each entry in Rows.
	lines []int
}

// Line returns the file row number of Rows[i], counting the header as row 1.
func (t *Table) Line(i int) int {
	if i < len(t.lines) {
		return t.lines[i]
	}
	return i + 2
}

// Cell returns row[col] trimmed, or "" when the row is short.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Column finds a header by name, ignoring case, spaces, '_' and '-'.
func (t *Table) Column(names ...string) int {
	for _, name := range names {
		want := normalizeHeader(name)
		for i, h := range t.Headers {
			if normalizeHeader(h) == want {
				return i
			}
		}
	}
	return -1
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func newTable(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("file has no header row")
	}
	t := &Table{Headers: make([]string, len(rows[0]))}
	for i, h := range rows[0] {
		t.Headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "﻿"))
	}
	for i, r := range rows[1:] {
		if isBlank(r) {
			continue
		}
		t.Rows = append(t.Rows, r)
		t.lines = append(t.lines, i+2)
	}
	return t, nil
}

func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return newTable(rows)
}

// ReadXLSX reads one sheet of a workbook; an empty sheet name selects the
// first sheet.
func ReadXLSX(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return newTable(rows)
}

// LoadTable reads a .csv or .xlsx file.
func LoadTable(path, sheet string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening import file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadCSV(f)
	case ".xlsx", ".xlsm":
		return ReadXLSX(f, sheet)
	}
	return nil, fmt.Errorf("unsupported file type %q (expected .csv or .xlsx)", filepath.Ext(path))
}
