// Package recompute derives the budget tree and rollup from a record set and
// publishes each result as an immutable snapshot.
package recompute

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/alexanderramin/budgetree/internal/budgettree"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/rollup"
	"github.com/oklog/ulid/v2"
)

// DerivedState is everything computed from one record set. It is never
// modified after Recompute returns it.
type DerivedState struct {
	Revision    string
	Fingerprint string
	Records     []domain.LineRecord
	Tree        *budgettree.Tree
	Rollup      *rollup.Rollup
	BuiltAt     time.Time
}

// Warnings merges tree warnings with rollup notices.
func (s *DerivedState) Warnings() []domain.Warning {
	out := slices.Clone(s.Tree.Warnings())
	return append(out, s.Rollup.Notices()...)
}

// Recompute validates records, builds the tree and rolls it up. The records
// are cloned first so later edits by the caller cannot reach the snapshot.
func Recompute(records []domain.LineRecord) (*DerivedState, error) {
	snapshot := make([]domain.LineRecord, len(records))
	for i, r := range records {
		snapshot[i] = r.Clone()
	}

	tree, err := budgettree.Build(snapshot)
	if err != nil {
		return nil, err
	}
	r, err := rollup.Aggregate(tree, snapshot)
	if err != nil {
		return nil, err
	}

	return &DerivedState{
		Revision:    ulid.Make().String(),
		Fingerprint: Fingerprint(snapshot),
		Records:     snapshot,
		Tree:        tree,
		Rollup:      r,
		BuiltAt:     time.Now().UTC(),
	}, nil
}

// Fingerprint hashes the record set independent of record order.
func Fingerprint(records []domain.LineRecord) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = canonical(r)
	}
	slices.Sort(lines)

	h := sha256.New()
	for _, l := range lines {
		h.Write([]byte(l))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalRecord is the JSON form hashed by Fingerprint. Every field is a
// separate JSON string, so no label or dimension value can imitate another
// field's boundary.
type canonicalRecord struct {
	Code       string      `json:"c"`
	ParentCode string      `json:"p"`
	Label      string      `json:"l"`
	Dimensions [][]string  `json:"d,omitempty"`
	Buckets    [][3]string `json:"b,omitempty"`
}

func canonical(r domain.LineRecord) string {
	c := canonicalRecord{
		Code:       strings.TrimSpace(r.Code),
		ParentCode: strings.TrimSpace(r.ParentCode),
		Label:      r.Label,
	}
	for _, name := range r.DimensionNames() {
		d := r.Dimensions[name]
		kind := "1"
		if d.IsMulti() {
			kind = "n"
		}
		c.Dimensions = append(c.Dimensions, append([]string{name, kind}, d.Values()...))
	}
	for _, k := range r.BucketKeys() {
		v := r.Buckets[k]
		c.Buckets = append(c.Buckets, [3]string{string(k), v.Planned.String(), v.Actual.String()})
	}
	// Only strings and slices of strings; Marshal cannot fail.
	out, _ := json.Marshal(c)
	return string(out)
}
