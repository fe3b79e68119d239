package domain

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// LineRecord is one flat budget line as entered or imported. Code may be
// empty for rows that are not attached to the tree; an empty ParentCode
// makes the line a root.
type LineRecord struct {
	Code       string
	ParentCode string
	Label      string
	Dimensions map[string]DimensionValue
	Buckets    map[BucketKey]BucketValues
}

// Value returns the amount the line carries for a bucket and metric.
func (r LineRecord) Value(b BucketKey, m Metric) decimal.Decimal {
	return r.Buckets[b].Get(m)
}

// SetValue overwrites one metric of one bucket, allocating the map on first use.
func (r *LineRecord) SetValue(b BucketKey, m Metric, v decimal.Decimal) {
	if r.Buckets == nil {
		r.Buckets = make(map[BucketKey]BucketValues)
	}
	bv := r.Buckets[b]
	if m == MetricActual {
		bv.Actual = v
	} else {
		bv.Planned = v
	}
	r.Buckets[b] = bv
}

func (r LineRecord) HasValues() bool {
	for _, v := range r.Buckets {
		if !v.IsZero() {
			return true
		}
	}
	return false
}

// DimensionNames returns the record's dimension names sorted.
func (r LineRecord) DimensionNames() []string {
	names := make([]string, 0, len(r.Dimensions))
	for name := range r.Dimensions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BucketKeys returns the record's buckets sorted.
func (r LineRecord) BucketKeys() []BucketKey {
	keys := make([]BucketKey, 0, len(r.Buckets))
	for b := range r.Buckets {
		keys = append(keys, b)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a deep copy.
func (r LineRecord) Clone() LineRecord {
	out := r
	if r.Dimensions != nil {
		out.Dimensions = make(map[string]DimensionValue, len(r.Dimensions))
		for k, v := range r.Dimensions {
			out.Dimensions[k] = v
		}
	}
	if r.Buckets != nil {
		out.Buckets = make(map[BucketKey]BucketValues, len(r.Buckets))
		for k, v := range r.Buckets {
			out.Buckets[k] = v
		}
	}
	return out
}

// Normalize trims the identifying fields in place.
func (r *LineRecord) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
	r.ParentCode = strings.TrimSpace(r.ParentCode)
	r.Label = strings.TrimSpace(r.Label)
}

// CollectBuckets returns the union of buckets across records, sorted.
func CollectBuckets(records []LineRecord) []BucketKey {
	seen := make(map[BucketKey]struct{})
	for _, r := range records {
		for b := range r.Buckets {
			seen[b] = struct{}{}
		}
	}
	out := make([]BucketKey, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	slices.Sort(out)
	return out
}

// BucketAggregate is the rolled-up value of one node for one bucket and metric.
type BucketAggregate struct {
	NodeCode string
	Bucket   BucketKey
	Metric   Metric
	Value    decimal.Decimal
}
