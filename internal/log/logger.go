// Package log builds the slog loggers used across budgetree. Every record
// carries the component that emitted it.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Common field names for structured logging.
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldBudget    = "budget"
	FieldRevision  = "revision"
	FieldDirection = "direction"
	FieldError     = "error"
)

// Component names.
const (
	ComponentCLI        = "cli"
	ComponentService    = "service"
	ComponentStorage    = "storage"
	ComponentSettlement = "settlement"
)

// ParseLevel accepts debug, info, warn and error, case-insensitively.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
}

// New returns a text logger writing to w at level, tagged with component.
func New(w io.Writer, level slog.Leveler, component string) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(FieldComponent, component)
}

// Discard drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
