package budgettree

import (
	"slices"

	"github.com/alexanderramin/budgetree/internal/domain"
)

func (t *Tree) Len() int { return len(t.nodes) }

// Built reports whether t came out of a successful Build.
func (t *Tree) Built() bool { return t != nil && t.index != nil }

// RecordCount is the length of the record slice the tree was built from.
func (t *Tree) RecordCount() int { return t.records }

// Nodes returns the arena in roots-first order. Callers must not modify it.
func (t *Tree) Nodes() []Node { return t.nodes }

func (t *Tree) Node(code string) (Node, bool) {
	pos, ok := t.index[code]
	if !ok {
		return Node{}, false
	}
	return t.nodes[pos], true
}

func (t *Tree) Position(code string) (int, bool) {
	pos, ok := t.index[code]
	return pos, ok
}

// Order returns the codes in roots-first topological order.
func (t *Tree) Order() []string {
	out := make([]string, len(t.nodes))
	for i, n := range t.nodes {
		out[i] = n.Code
	}
	return out
}

func (t *Tree) Warnings() []domain.Warning { return t.warnings }

// Roots returns the root codes in ascending order.
func (t *Tree) Roots() []string {
	var out []string
	for _, n := range t.nodes {
		if n.Parent < 0 {
			out = append(out, n.Code)
		}
	}
	return sortedCopy(out)
}

func (t *Tree) Leaves() []string {
	var out []string
	for _, n := range t.nodes {
		if n.IsLeaf {
			out = append(out, n.Code)
		}
	}
	return sortedCopy(out)
}

// Children returns the direct children of code in ascending order.
func (t *Tree) Children(code string) []string {
	pos, ok := t.index[code]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(t.nodes[pos].Children))
	for _, c := range t.nodes[pos].Children {
		out = append(out, t.nodes[c].Code)
	}
	return out
}

// Subtree returns code and all its descendants in depth-first pre-order.
func (t *Tree) Subtree(code string) []string {
	pos, ok := t.index[code]
	if !ok {
		return nil
	}
	var out []string
	t.walk(pos, func(p int, _ bool) { out = append(out, t.nodes[p].Code) }, true)
	return out
}

// Walk visits every node depth-first, roots and siblings in ascending code
// order. isLast is true when the node is the final child of its parent.
func (t *Tree) Walk(fn func(n Node, isLast bool)) {
	roots := t.Roots()
	for i, code := range roots {
		t.walk(t.index[code], func(p int, last bool) { fn(t.nodes[p], last) }, i == len(roots)-1)
	}
}

func (t *Tree) walk(pos int, fn func(pos int, isLast bool), isLast bool) {
	fn(pos, isLast)
	children := t.nodes[pos].Children
	for i, c := range children {
		t.walk(c, fn, i == len(children)-1)
	}
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}
