// Package rollup sums leaf amounts up a validated budget tree.
package rollup

import (
	"maps"
	"slices"
	"strings"

	"github.com/alexanderramin/budgetree/internal/budgettree"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
)

// Rollup holds the aggregated values of every node, indexed by arena position.
type Rollup struct {
	tree    *budgettree.Tree
	values  []map[domain.BucketKey]domain.BucketValues
	buckets []domain.BucketKey
	notices []domain.Warning
}

// Aggregate rolls leaf values up to every ancestor in a single pass over the
// arena in reverse topological order. Values typed on parent lines are
// zeroed and reported as notices. tree must be the successful result of
// budgettree.Build over the same records.
func Aggregate(tree *budgettree.Tree, records []domain.LineRecord) (*Rollup, error) {
	if !tree.Built() {
		return nil, &domain.PreconditionFailedError{Reason: "budget tree is missing or failed validation"}
	}
	if tree.RecordCount() != len(records) {
		return nil, &domain.PreconditionFailedError{Reason: "records changed since the tree was built"}
	}

	nodes := tree.Nodes()
	r := &Rollup{
		tree:   tree,
		values: make([]map[domain.BucketKey]domain.BucketValues, len(nodes)),
	}

	seen := make(map[domain.BucketKey]struct{})
	for pos, n := range nodes {
		src := records[n.Record]
		if strings.TrimSpace(src.Code) != n.Code {
			return nil, &domain.PreconditionFailedError{Reason: "records changed since the tree was built"}
		}
		r.values[pos] = make(map[domain.BucketKey]domain.BucketValues)
		if !n.IsLeaf {
			if src.HasValues() {
				r.notices = append(r.notices, domain.IgnoredParentValue(n.Code))
			}
			continue
		}
		for b, v := range src.Buckets {
			r.values[pos][b] = v
			seen[b] = struct{}{}
		}
	}

	for pos := len(nodes) - 1; pos >= 0; pos-- {
		parent := nodes[pos].Parent
		if parent < 0 {
			continue
		}
		for b, v := range r.values[pos] {
			r.values[parent][b] = r.values[parent][b].Add(v)
		}
	}

	r.buckets = slices.Sorted(maps.Keys(seen))
	return r, nil
}

func (r *Rollup) Tree() *budgettree.Tree { return r.tree }

// Buckets lists every bucket that carries a leaf value, ascending.
func (r *Rollup) Buckets() []domain.BucketKey { return slices.Clone(r.buckets) }

// Notices lists the parent lines whose own values were ignored.
func (r *Rollup) Notices() []domain.Warning { return r.notices }

// Value returns the aggregate of code for one bucket and metric, or zero when
// the code is unknown.
func (r *Rollup) Value(code string, b domain.BucketKey, m domain.Metric) decimal.Decimal {
	pos, ok := r.tree.Position(code)
	if !ok {
		return decimal.Zero
	}
	return r.values[pos][b].Get(m)
}

// Bucket returns both metrics of code for one bucket.
func (r *Rollup) Bucket(code string, b domain.BucketKey) domain.BucketValues {
	pos, ok := r.tree.Position(code)
	if !ok {
		return domain.BucketValues{}
	}
	return r.values[pos][b]
}

// NodeTotal sums every bucket of code.
func (r *Rollup) NodeTotal(code string) domain.BucketValues {
	var total domain.BucketValues
	pos, ok := r.tree.Position(code)
	if !ok {
		return total
	}
	for _, v := range r.values[pos] {
		total = total.Add(v)
	}
	return total
}

// GrandTotal sums every root across all buckets.
func (r *Rollup) GrandTotal() domain.BucketValues {
	var total domain.BucketValues
	for _, code := range r.tree.Roots() {
		total = total.Add(r.NodeTotal(code))
	}
	return total
}

// Aggregates flattens the rollup in tree order, then bucket, then metric.
func (r *Rollup) Aggregates() []domain.BucketAggregate {
	var out []domain.BucketAggregate
	for pos, n := range r.tree.Nodes() {
		for _, b := range r.buckets {
			v, ok := r.values[pos][b]
			if !ok {
				continue
			}
			for _, m := range domain.Metrics {
				out = append(out, domain.BucketAggregate{NodeCode: n.Code, Bucket: b, Metric: m, Value: v.Get(m)})
			}
		}
	}
	return out
}
