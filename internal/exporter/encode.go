package exporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/budgetree/internal/contract"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("invalid export format %q: expected csv or json", s)
}

// ContentType is the MIME type recorded on uploaded objects.
func (f Format) ContentType() string {
	if f == FormatJSON {
		return "application/json"
	}
	return "text/csv"
}

// WriteCSV writes the long header followed by every row.
func WriteCSV(w io.Writer, e *Export) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(contract.Header(e.Dimensions)); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range e.Document.Data {
		if err := cw.Write(row.Cells(e.Dimensions)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

// WriteJSON writes the {meta, data} document indented by two spaces.
func WriteJSON(w io.Writer, e *Export) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.Document); err != nil {
		return fmt.Errorf("encoding budget document: %w", err)
	}
	return nil
}

// Encode renders e in the given format.
func Encode(e *Export, f Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatJSON:
		err = WriteJSON(&buf, e)
	case FormatCSV:
		err = WriteCSV(&buf, e)
	default:
		err = fmt.Errorf("invalid export format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
