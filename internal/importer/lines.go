package importer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
)

type Format string

const (
	FormatAuto Format = "auto"
	FormatWide Format = "wide"
	FormatLong Format = "long"
	FormatJSON Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatWide, FormatLong, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("invalid format %q: expected auto, wide, long or json", s)
}

// Options controls how dimension cells are read.
type Options struct {
	// MultiDimensions names the dimension columns whose cells hold lists.
	MultiDimensions []string
}

func (o Options) isMulti(dim string) bool {
	want := normalizeHeader(dim)
	for _, d := range o.MultiDimensions {
		if normalizeHeader(d) == want {
			return true
		}
	}
	return false
}

// Lines is a parsed budget file.
type Lines struct {
	Records    []domain.LineRecord
	Dimensions []string
	Buckets    []domain.BucketKey
	// Meta is set when the file carried budget metadata (JSON documents and
	// re-imported long exports).
	Meta *contract.Meta
}

// DetectFormat picks long form when a Month column is present.
func DetectFormat(t *Table) Format {
	if t.Column("Month") >= 0 {
		return FormatLong
	}
	return FormatWide
}

// ParseLines parses t in the given format, detecting it for FormatAuto.
func ParseLines(t *Table, format Format, opts Options) (*Lines, []error) {
	if format == FormatAuto || format == "" {
		format = DetectFormat(t)
	}
	switch format {
	case FormatWide:
		return ParseWide(t, opts)
	case FormatLong:
		return ParseLong(t, opts)
	}
	return nil, []error{fmt.Errorf("format %q cannot be read from a table", format)}
}

type keyColumns struct {
	code, parent, item int
}

func requireKeyColumns(t *Table, extra ...string) (keyColumns, []error) {
	cols := keyColumns{
		code:   t.Column("Code"),
		parent: t.Column("ParentCode", "Parent"),
		item:   t.Column("Item", "Label"),
	}
	var errs []error
	for name, idx := range map[string]int{"Code": cols.code, "ParentCode": cols.parent, "Item": cols.item} {
		if idx < 0 {
			errs = append(errs, fmt.Errorf("missing required column %q", name))
		}
	}
	for _, name := range extra {
		if t.Column(name) < 0 {
			errs = append(errs, fmt.Errorf("missing required column %q", name))
		}
	}
	slices.SortFunc(errs, func(a, b error) int { return strings.Compare(a.Error(), b.Error()) })
	return cols, errs
}

func (k keyColumns) has(i int) bool {
	return i == k.code || i == k.parent || i == k.item
}

type bucketColumn struct {
	index  int
	bucket domain.BucketKey
	metric domain.Metric
}

// classifyBucket recognises "YYYY-MM", "Planned:YYYY-MM" and "Actual:YYYY-MM"
// headers.
func classifyBucket(header string) (domain.BucketKey, domain.Metric, bool) {
	h := strings.TrimSpace(header)
	metric := domain.MetricPlanned
	lower := strings.ToLower(h)
	for _, p := range []struct {
		prefix string
		metric domain.Metric
	}{{"actual", domain.MetricActual}, {"planned", domain.MetricPlanned}} {
		if strings.HasPrefix(lower, p.prefix) {
			rest := strings.TrimLeft(h[len(p.prefix):], ": _")
			if rest == "" {
				return "", "", false
			}
			h = rest
			metric = p.metric
			break
		}
	}
	b, err := domain.ParseBucketKey(h)
	if err != nil {
		return "", "", false
	}
	return b, metric, true
}

// ParseWide reads one line per row with one column per bucket.
func ParseWide(t *Table, opts Options) (*Lines, []error) {
	keys, errs := requireKeyColumns(t)
	if len(errs) > 0 {
		return nil, errs
	}

	out := &Lines{}
	var buckets []bucketColumn
	type dimColumn struct {
		index int
		name  string
	}
	var dims []dimColumn
	seen := make(map[string]int)
	for i, h := range t.Headers {
		if keys.has(i) || strings.TrimSpace(h) == "" {
			continue
		}
		if b, m, ok := classifyBucket(h); ok {
			id := string(m) + ":" + string(b)
			if prev, dup := seen[id]; dup {
				errs = append(errs, fmt.Errorf("columns %q and %q both hold %s %s", t.Headers[prev], h, m, b))
				continue
			}
			seen[id] = i
			buckets = append(buckets, bucketColumn{index: i, bucket: b, metric: m})
			continue
		}
		dims = append(dims, dimColumn{index: i, name: h})
		out.Dimensions = append(out.Dimensions, h)
	}

	for ri, row := range t.Rows {
		line := t.Line(ri)
		rec := domain.LineRecord{
			Code:       t.Cell(row, keys.code),
			ParentCode: t.Cell(row, keys.parent),
			Label:      t.Cell(row, keys.item),
			Dimensions: make(map[string]domain.DimensionValue, len(dims)),
			Buckets:    make(map[domain.BucketKey]domain.BucketValues, len(buckets)),
		}
		for _, d := range dims {
			rec.Dimensions[d.name] = domain.ParseDimension(t.Cell(row, d.index), opts.isMulti(d.name))
		}
		for _, bc := range buckets {
			v, err := parseAmount(t.Cell(row, bc.index))
			if err != nil {
				errs = append(errs, cellError(line, t.Headers[bc.index], "%v", err))
				continue
			}
			rec.SetValue(bc.bucket, bc.metric, v)
		}
		out.Records = append(out.Records, rec)
	}

	for _, bc := range buckets {
		out.Buckets = append(out.Buckets, bc.bucket)
	}
	slices.Sort(out.Buckets)
	out.Buckets = slices.Compact(out.Buckets)
	return out, errs
}

// metaColumns are written by the long export and read back into Meta.
var metaColumns = []string{"Budget", "Version", "BudgetType", "Project", "Currency"}

// ParseLong pivots (Code, ParentCode, Item, Month, Planned[, Actual]) rows
// into one record per distinct (Code, ParentCode, Item, dimensions) key.
// Repeated (key, Month) rows are summed.
func ParseLong(t *Table, opts Options) (*Lines, []error) {
	keys, errs := requireKeyColumns(t, "Month", "Planned")
	if len(errs) > 0 {
		return nil, errs
	}
	monthCol := t.Column("Month")
	plannedCol := t.Column("Planned")
	actualCol := t.Column("Actual")

	reserved := map[int]bool{monthCol: true, plannedCol: true}
	if actualCol >= 0 {
		reserved[actualCol] = true
	}
	metaIdx := make(map[string]int)
	for _, name := range metaColumns {
		if i := t.Column(name); i >= 0 {
			metaIdx[name] = i
			reserved[i] = true
		}
	}

	out := &Lines{}
	type dimColumn struct {
		index int
		name  string
	}
	var dims []dimColumn
	for i, h := range t.Headers {
		if keys.has(i) || reserved[i] || strings.TrimSpace(h) == "" {
			continue
		}
		dims = append(dims, dimColumn{index: i, name: h})
		out.Dimensions = append(out.Dimensions, h)
	}

	if len(metaIdx) > 0 && len(t.Rows) > 0 {
		first := t.Rows[0]
		cell := func(name string) string {
			if i, ok := metaIdx[name]; ok {
				return t.Cell(first, i)
			}
			return ""
		}
		out.Meta = &contract.Meta{
			BudgetName:   cell("Budget"),
			Version:      cell("Version"),
			BudgetType:   cell("BudgetType"),
			ProjectName:  cell("Project"),
			Currency:     cell("Currency"),
			ExtraColumns: slices.Clone(out.Dimensions),
		}
	}

	index := make(map[string]int)
	bucketSet := make(map[domain.BucketKey]struct{})
	for ri, row := range t.Rows {
		line := t.Line(ri)
		rec := domain.LineRecord{
			Code:       t.Cell(row, keys.code),
			ParentCode: t.Cell(row, keys.parent),
			Label:      t.Cell(row, keys.item),
			Dimensions: make(map[string]domain.DimensionValue, len(dims)),
		}
		var key strings.Builder
		key.WriteString(rec.Code + "\x1f" + rec.ParentCode + "\x1f" + rec.Label)
		for _, d := range dims {
			v := domain.ParseDimension(t.Cell(row, d.index), opts.isMulti(d.name))
			rec.Dimensions[d.name] = v
			key.WriteString("\x1f" + v.Joined(";"))
		}

		bucket, err := domain.ParseBucketKey(t.Cell(row, monthCol))
		rowOK := true
		if err != nil {
			errs = append(errs, cellError(line, t.Headers[monthCol], "%v", err))
			rowOK = false
		}
		planned, err := parseAmount(t.Cell(row, plannedCol))
		if err != nil {
			errs = append(errs, cellError(line, t.Headers[plannedCol], "%v", err))
			rowOK = false
		}
		var values domain.BucketValues
		values.Planned = planned
		if actualCol >= 0 {
			actual, err := parseAmount(t.Cell(row, actualCol))
			if err != nil {
				errs = append(errs, cellError(line, t.Headers[actualCol], "%v", err))
				rowOK = false
			}
			values.Actual = actual
		}

		pos, ok := index[key.String()]
		if !ok {
			pos = len(out.Records)
			index[key.String()] = pos
			rec.Buckets = make(map[domain.BucketKey]domain.BucketValues)
			out.Records = append(out.Records, rec)
		}
		if !rowOK {
			continue
		}
		target := &out.Records[pos]
		target.Buckets[bucket] = target.Buckets[bucket].Add(values)
		bucketSet[bucket] = struct{}{}
	}

	for b := range bucketSet {
		out.Buckets = append(out.Buckets, b)
	}
	slices.Sort(out.Buckets)
	return out, errs
}
