package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const bucketLayout = "2006-01"

// BucketKey identifies one calendar month, formatted YYYY-MM.
type BucketKey string

// ParseBucketKey accepts YYYY-MM or a full YYYY-MM-DD date and returns the
// month bucket it falls in.
func ParseBucketKey(s string) (BucketKey, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{bucketLayout, "2006-01-02", "2006/01", "2006/01/02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return BucketOf(t), nil
		}
	}
	return "", fmt.Errorf("invalid bucket %q: expected YYYY-MM", s)
}

// BucketOf returns the bucket containing t.
func BucketOf(t time.Time) BucketKey {
	return BucketKey(t.Format(bucketLayout))
}

// Time returns the first day of the bucket's month in UTC.
func (b BucketKey) Time() time.Time {
	t, err := time.Parse(bucketLayout, string(b))
	if err != nil {
		return time.Time{}
	}
	return t
}

// FirstDay renders the bucket as YYYY-MM-01.
func (b BucketKey) FirstDay() string {
	return string(b) + "-01"
}

func (b BucketKey) Next() BucketKey {
	return BucketOf(b.Time().AddDate(0, 1, 0))
}

// MonthRange lists every bucket from start to end inclusive. A reversed range
// is swapped first.
func MonthRange(start, end BucketKey) []BucketKey {
	if end < start {
		start, end = end, start
	}
	var out []BucketKey
	for b := start; b <= end; b = b.Next() {
		out = append(out, b)
	}
	return out
}

// Metric selects which amount of a bucket is being read.
type Metric string

const (
	MetricPlanned Metric = "planned"
	MetricActual  Metric = "actual"
)

// Metrics lists every metric in display order.
var Metrics = []Metric{MetricPlanned, MetricActual}

func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case MetricPlanned:
		return MetricPlanned, nil
	case MetricActual:
		return MetricActual, nil
	}
	return "", fmt.Errorf("invalid metric %q: expected planned or actual", s)
}

// BucketValues holds the Planned and Actual amounts of one line for one bucket.
type BucketValues struct {
	Planned decimal.Decimal
	Actual  decimal.Decimal
}

func (v BucketValues) Get(m Metric) decimal.Decimal {
	if m == MetricActual {
		return v.Actual
	}
	return v.Planned
}

func (v BucketValues) Add(o BucketValues) BucketValues {
	return BucketValues{Planned: v.Planned.Add(o.Planned), Actual: v.Actual.Add(o.Actual)}
}

func (v BucketValues) IsZero() bool {
	return v.Planned.IsZero() && v.Actual.IsZero()
}
