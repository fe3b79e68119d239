package domain

import (
	"slices"
	"strings"
)

type DimensionKind int

const (
	SingleValued DimensionKind = iota
	MultiValued
)

// DimensionValue is a dimension tag on a budget line. It is either a single
// string or a set of strings; which one is decided at import time.
type DimensionValue struct {
	kind   DimensionKind
	single string
	multi  []string
}

func SingleValue(s string) DimensionValue {
	return DimensionValue{kind: SingleValued, single: strings.TrimSpace(s)}
}

// MultiValue builds a set from values. Blank entries are dropped, the rest
// are trimmed, de-duplicated and sorted.
func MultiValue(values ...string) DimensionValue {
	set := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		set = append(set, v)
	}
	slices.Sort(set)
	return DimensionValue{kind: MultiValued, multi: slices.Compact(set)}
}

// ParseMultiValue splits a cell on commas and semicolons. An empty cell
// yields an empty set.
func ParseMultiValue(cell string) DimensionValue {
	parts := strings.FieldsFunc(cell, func(r rune) bool { return r == ',' || r == ';' })
	return MultiValue(parts...)
}

func (d DimensionValue) Kind() DimensionKind { return d.kind }

func (d DimensionValue) IsMulti() bool { return d.kind == MultiValued }

// Single returns the single value, or "" for a multi-valued dimension.
func (d DimensionValue) Single() string {
	if d.kind == MultiValued {
		return ""
	}
	return d.single
}

// Values returns the dimension as a list. A single value yields one element,
// or none when blank. The result is never nil.
func (d DimensionValue) Values() []string {
	if d.kind == MultiValued {
		return append([]string{}, d.multi...)
	}
	if d.single == "" {
		return []string{}
	}
	return []string{d.single}
}

func (d DimensionValue) Contains(v string) bool {
	return slices.Contains(d.Values(), v)
}

func (d DimensionValue) Joined(sep string) string {
	return strings.Join(d.Values(), sep)
}

func (d DimensionValue) Equal(o DimensionValue) bool {
	return d.kind == o.kind && d.single == o.single && slices.Equal(d.multi, o.multi)
}

// ParseDimension resolves a raw cell into a single or multi value.
func ParseDimension(cell string, multi bool) DimensionValue {
	if multi {
		return ParseMultiValue(cell)
	}
	return SingleValue(cell)
}
