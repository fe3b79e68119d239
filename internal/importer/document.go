package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/alexanderramin/budgetree/internal/contract"
)

// ReadDocument decodes a {meta, data} budget document.
func ReadDocument(r io.Reader) (*contract.Document, error) {
	var doc contract.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing budget document: %w", err)
	}
	return &doc, nil
}

// LoadDocument reads and parses a JSON budget document from a file.
func LoadDocument(path string) (*contract.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading budget document: %w", err)
	}
	defer f.Close()
	return ReadDocument(f)
}

// ParseDocument pivots the document's long rows exactly like a long CSV.
// Dimension columns are the meta extra_columns followed by any other keys
// found in the rows.
func ParseDocument(doc *contract.Document, opts Options) (*Lines, []error) {
	dims := slices.Clone(doc.Meta.ExtraColumns)
	known := make(map[string]bool, len(dims))
	for _, d := range dims {
		known[d] = true
	}
	var extra []string
	for _, row := range doc.Data {
		for name := range row.Dimensions {
			if !known[name] {
				known[name] = true
				extra = append(extra, name)
			}
		}
	}
	slices.Sort(extra)
	dims = append(dims, extra...)

	t := &Table{Headers: contract.Header(dims)}
	for _, row := range doc.Data {
		t.Rows = append(t.Rows, row.Cells(dims))
	}

	lines, errs := ParseLong(t, opts)
	if lines != nil {
		meta := doc.Meta
		lines.Meta = &meta
	}
	return lines, errs
}
