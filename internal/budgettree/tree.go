// Package budgettree turns flat budget lines into a validated tree held in an
// arena. Nodes refer to each other by arena position; a tree is never edited
// after Build returns it.
package budgettree

import (
	"container/heap"
	"slices"
	"strings"

	"github.com/alexanderramin/budgetree/internal/domain"
)

// Node is a derived view of one coded LineRecord.
type Node struct {
	Code       string
	ParentCode string
	Label      string
	Depth      uint
	IsLeaf     bool
	Path       []string
	// Record is the position of the source LineRecord in the input slice.
	Record int
	// Parent is the arena position of the parent node, or -1 for a root.
	Parent   int
	Children []int
}

// Tree is the validated arena. Arena order is the roots-first topological
// order, so a parent always sits before its children.
type Tree struct {
	nodes    []Node
	index    map[string]int
	warnings []domain.Warning
	records  int
}

// Build validates records and assembles the tree. Every problem found is
// returned together in a *domain.ValidationError; no partial tree is
// returned alongside an error.
func Build(records []domain.LineRecord) (*Tree, error) {
	var errs []error
	var warnings []domain.Warning

	positions := make(map[string][]int)
	var codes []string
	for i, r := range records {
		code := strings.TrimSpace(r.Code)
		if code == "" {
			warnings = append(warnings, domain.UnattachedRecord(i, r.Label))
			continue
		}
		if _, seen := positions[code]; !seen {
			codes = append(codes, code)
		}
		positions[code] = append(positions[code], i)
	}
	slices.Sort(codes)

	for _, code := range codes {
		if idx := positions[code]; len(idx) > 1 {
			errs = append(errs, &domain.DuplicateCodeError{Code: code, RecordIndices: idx})
		}
	}

	parentOf := make(map[string]string, len(codes))
	childrenOf := make(map[string][]string)
	// edges holds the parent links of every record, duplicates included, so
	// a cycle through a later duplicate is still reported.
	edges := make(map[string][]string, len(codes))
	for _, code := range codes {
		selfParent := false
		for _, i := range positions[code] {
			if strings.TrimSpace(records[i].ParentCode) == code {
				selfParent = true
			}
		}
		if selfParent {
			errs = append(errs, &domain.SelfParentError{Code: code})
			continue
		}

		for n, i := range positions[code] {
			parent := strings.TrimSpace(records[i].ParentCode)
			if parent == "" {
				continue
			}
			if _, ok := positions[parent]; !ok {
				if n == 0 {
					warnings = append(warnings, domain.OrphanedParentReference(code, parent))
				}
				continue
			}
			if n == 0 {
				parentOf[code] = parent
				childrenOf[parent] = append(childrenOf[parent], code)
			}
			if !slices.Contains(edges[code], parent) {
				edges[code] = append(edges[code], parent)
			}
		}
	}

	order := kahn(codes, edges)
	if len(order) < len(codes) {
		removed := make(map[string]struct{}, len(order))
		for _, c := range order {
			removed[c] = struct{}{}
		}
		var remaining []string
		for _, c := range codes {
			if _, ok := removed[c]; !ok {
				remaining = append(remaining, c)
			}
		}
		errs = append(errs, &domain.CycleDetectedError{Codes: remaining})
	}

	if len(errs) > 0 {
		return nil, &domain.ValidationError{Errs: errs}
	}

	t := &Tree{
		nodes:    make([]Node, len(order)),
		index:    make(map[string]int, len(order)),
		warnings: warnings,
		records:  len(records),
	}
	for pos, code := range order {
		t.index[code] = pos
	}

	labelOf := func(code string) string {
		if l := strings.TrimSpace(records[positions[code][0]].Label); l != "" {
			return l
		}
		return code
	}

	for pos, code := range order {
		n := Node{
			Code:       code,
			ParentCode: parentOf[code],
			Label:      labelOf(code),
			IsLeaf:     len(childrenOf[code]) == 0,
			Path:       pathOf(code, parentOf, labelOf),
			Record:     positions[code][0],
			Parent:     -1,
		}
		if parent, ok := parentOf[code]; ok {
			pp := t.index[parent]
			n.Parent = pp
			n.Depth = t.nodes[pp].Depth + 1
			t.nodes[pp].Children = append(t.nodes[pp].Children, pos)
		}
		t.nodes[pos] = n
	}
	for i := range t.nodes {
		slices.SortFunc(t.nodes[i].Children, func(a, b int) int {
			return strings.Compare(t.nodes[a].Code, t.nodes[b].Code)
		})
	}

	return t, nil
}

// kahn removes zero in-degree codes smallest first and returns the removal
// order. parents maps a code to its distinct parent codes. Codes caught in or
// under a cycle are never removed.
func kahn(codes []string, parents map[string][]string) []string {
	inDegree := make(map[string]int, len(codes))
	children := make(map[string][]string)
	ready := &codeHeap{}
	for _, c := range codes {
		inDegree[c] = len(parents[c])
		for _, p := range parents[c] {
			children[p] = append(children[p], c)
		}
		if inDegree[c] == 0 {
			heap.Push(ready, c)
		}
	}

	order := make([]string, 0, len(codes))
	for ready.Len() > 0 {
		c := heap.Pop(ready).(string)
		order = append(order, c)
		for _, child := range children[c] {
			inDegree[child]--
			if inDegree[child] == 0 {
				heap.Push(ready, child)
			}
		}
	}
	return order
}

// pathOf lists labels from the root down to code. The visited set stops the
// walk if the parent chain ever loops.
func pathOf(code string, parentOf map[string]string, labelOf func(string) string) []string {
	var path []string
	visited := make(map[string]struct{})
	for c := code; c != ""; c = parentOf[c] {
		if _, ok := visited[c]; ok {
			break
		}
		visited[c] = struct{}{}
		path = append(path, labelOf(c))
	}
	slices.Reverse(path)
	return path
}

type codeHeap []string

func (h codeHeap) Len() int           { return len(h) }
func (h codeHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h codeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *codeHeap) Push(x any)        { *h = append(*h, x.(string)) }
func (h *codeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
