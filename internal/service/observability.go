package service

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	blog "github.com/alexanderramin/budgetree/internal/log"
)

// UseCaseEvent describes one finished service call: an import, a settlement
// run, a link and so on.
type UseCaseEvent struct {
	Name      string
	StartedAt time.Time
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
}

// Level is the log level the event deserves.
func (e UseCaseEvent) Level() slog.Level {
	if e.Err != nil {
		return slog.LevelError
	}
	return slog.LevelInfo
}

type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

// NewLogUseCaseObserver writes one "service_use_case" record per event.
// Extra fields follow the fixed ones in key order.
func NewLogUseCaseObserver(logger *slog.Logger) UseCaseObserver {
	if logger == nil {
		return NoopUseCaseObserver{}
	}
	return logObserver{logger: logger}
}

type logObserver struct {
	logger *slog.Logger
}

func (o logObserver) ObserveUseCase(ctx context.Context, e UseCaseEvent) {
	attrs := []slog.Attr{
		slog.String(blog.FieldOperation, e.Name),
		slog.Int64("duration_ms", e.Duration.Milliseconds()),
		slog.Bool("success", e.Success),
	}
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		attrs = append(attrs, slog.Any(k, e.Fields[k]))
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String(blog.FieldError, e.Err.Error()))
	}
	o.logger.LogAttrs(ctx, e.Level(), "service_use_case", attrs...)
}

// firstObserver picks the first non-nil optional observer argument.
func firstObserver(observers []UseCaseObserver) UseCaseObserver {
	if i := slices.IndexFunc(observers, func(o UseCaseObserver) bool { return o != nil }); i >= 0 {
		return observers[i]
	}
	return NoopUseCaseObserver{}
}

// track marks the start of a use case. Call the returned func once with the
// call's final error.
func track(ctx context.Context, obs UseCaseObserver, name string, fields map[string]any) func(err error) {
	if fields == nil {
		fields = make(map[string]any)
	}
	start := time.Now().UTC()
	return func(err error) {
		obs.ObserveUseCase(ctx, UseCaseEvent{
			Name:      name,
			StartedAt: start,
			Duration:  time.Since(start),
			Success:   err == nil,
			Err:       err,
			Fields:    fields,
		})
	}
}
