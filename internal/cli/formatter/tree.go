package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one line of a tree display.
type TreeItem struct {
	Title string
	Code  string
	Level int
	// Ancestors holds, for each level above this one, whether that
	// ancestor was the last of its siblings.
	Ancestors []bool
	IsLast    bool
	IsLeaf    bool
	Detail    string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree renders items as an indented tree with box-drawing connectors.
// Parent nodes are bold and details are right-aligned in one column.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		detail  string
	}
	lines := make([]lineInfo, len(items))
	maxContentWidth := 0

	for idx, item := range items {
		var prefix strings.Builder
		if item.Level > 0 {
			for i := 1; i < item.Level && i < len(item.Ancestors); i++ {
				if item.Ancestors[i] {
					prefix.WriteString(treeBlank)
				} else {
					prefix.WriteString(treePipe)
				}
			}
			if item.IsLast {
				prefix.WriteString(treeCorner)
			} else {
				prefix.WriteString(treeBranch)
			}
		}

		title := item.Title
		if !item.IsLeaf {
			title = Bold(title)
		}
		if item.Code != "" {
			title = StyleDim.Render(item.Code+" ") + title
		}

		content := prefix.String() + title
		lines[idx] = lineInfo{content: content, detail: item.Detail}
		maxContentWidth = max(maxContentWidth, lipgloss.Width(content))
	}

	var b strings.Builder
	for _, li := range lines {
		if li.detail == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := maxContentWidth - lipgloss.Width(li.content)
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + StyleBlue.Render(li.detail) + "\n")
	}
	return b.String()
}
