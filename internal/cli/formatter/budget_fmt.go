package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetree/internal/budgettree"
	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/recompute"
	"github.com/alexanderramin/budgetree/internal/rollup"
	"github.com/shopspring/decimal"
)

// FormatBudgetList renders stored budgets as a table.
func FormatBudgetList(budgets []*domain.Budget) string {
	if len(budgets) == 0 {
		return Dim("No budgets found. Import one with: budgetree budget import <file>") + "\n"
	}
	cols := Cols("ID", "NAME", "VERSION", "TYPE", "PROJECT", "CURRENCY", "MONTHS")
	rows := make([][]string, 0, len(budgets))
	for _, b := range budgets {
		months := "--"
		if b.StartMonth != "" {
			months = fmt.Sprintf("%s → %s", b.StartMonth, b.EndMonth)
		}
		project := b.Project
		if project == "" {
			project = Dim("--")
		}
		rows = append(rows, []string{
			TruncID(b.ID), Bold(b.Name), b.Version, string(b.Type), project, b.Currency, months,
		})
	}
	return RenderTable(cols, rows)
}

// FormatBudgetReport renders the outcome of an import or validation.
func FormatBudgetReport(r *contract.BudgetReport) string {
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("%s@%s", r.Budget.Name, r.Budget.Version)) + "\n")
	fmt.Fprintf(&b, "%s %d lines · %s · %s\n",
		Dim("Lines:"), r.Lines, r.Budget.Type, r.Budget.Currency)

	if r.Valid() {
		b.WriteString(StyleGreen.Render("✔ tree is valid") + "\n")
		fmt.Fprintf(&b, "%s %s  %s %s\n",
			Dim("Revision:"), r.Revision, Dim("Fingerprint:"), shortHash(r.Fingerprint))
	} else {
		b.WriteString(StyleRed.Render(fmt.Sprintf("✖ %d tree errors; rollup and export are blocked", len(r.Errors))) + "\n")
		for _, err := range r.Errors {
			b.WriteString("  " + StyleRed.Render("- "+err.Error()) + "\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString(StyleYellow.Render(fmt.Sprintf("%d warnings:", len(r.Warnings))) + "\n")
		for _, w := range r.Warnings {
			b.WriteString("  " + StyleYellow.Render("- "+w.Message) + "\n")
		}
	}
	return b.String()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// FormatTree renders the budget tree. With a bucket, each node shows that
// bucket's planned and actual amounts; otherwise its totals across buckets.
func FormatTree(state *recompute.DerivedState, bucket domain.BucketKey) string {
	if state.Tree.Len() == 0 {
		return Dim("Budget has no coded lines.") + "\n"
	}

	var items []TreeItem
	var lastByDepth []bool
	state.Tree.Walk(func(n budgettree.Node, isLast bool) {
		depth := int(n.Depth)
		lastByDepth = append(lastByDepth[:min(depth, len(lastByDepth))], isLast)

		values := state.Rollup.NodeTotal(n.Code)
		if bucket != "" {
			values = state.Rollup.Bucket(n.Code, bucket)
		}
		items = append(items, TreeItem{
			Title:     n.Label,
			Code:      n.Code,
			Level:     depth,
			Ancestors: append([]bool(nil), lastByDepth[:depth]...),
			IsLast:    isLast,
			IsLeaf:    n.IsLeaf,
			Detail:    fmt.Sprintf("P %s · A %s", FormatAmount(values.Planned), FormatAmount(values.Actual)),
		})
	})
	return RenderTree(items)
}

// FormatRollup renders aggregates per node. For a single metric there is
// one column per bucket plus a total; for both metrics, node totals with
// variance.
func FormatRollup(state *recompute.DerivedState, metric string) string {
	if state.Tree.Len() == 0 {
		return Dim("Budget has no coded lines.") + "\n"
	}
	if metric == "both" {
		return formatVarianceTable(state)
	}

	m, err := domain.ParseMetric(metric)
	if err != nil {
		return StyleRed.Render(err.Error()) + "\n"
	}
	buckets := state.Rollup.Buckets()
	cols := Cols("CODE", "ITEM")
	for _, bk := range buckets {
		cols = append(cols, Column{Title: string(bk), Numeric: true})
	}
	cols = append(cols, Column{Title: "TOTAL", Numeric: true})

	var rows [][]string
	state.Tree.Walk(func(n budgettree.Node, _ bool) {
		row := []string{n.Code, indentLabel(n)}
		for _, bk := range buckets {
			row = append(row, FormatAmount(state.Rollup.Value(n.Code, bk, m)))
		}
		row = append(row, Bold(FormatAmount(state.Rollup.NodeTotal(n.Code).Get(m))))
		rows = append(rows, row)
	})

	total := []string{"", Bold("Total")}
	for _, bk := range buckets {
		var sum domain.BucketValues
		for _, root := range state.Tree.Roots() {
			sum = sum.Add(state.Rollup.Bucket(root, bk))
		}
		total = append(total, Bold(FormatAmount(sum.Get(m))))
	}
	total = append(total, Bold(FormatAmount(state.Rollup.GrandTotal().Get(m))))
	rows = append(rows, total)

	return Header(string(m)) + "\n" + RenderTable(cols, rows)
}

func formatVarianceTable(state *recompute.DerivedState) string {
	cols := []Column{
		{Title: "CODE"}, {Title: "ITEM"},
		{Title: "PLANNED", Numeric: true}, {Title: "ACTUAL", Numeric: true},
		{Title: "VARIANCE", Numeric: true}, {Title: "VAR %", Numeric: true},
	}
	var rows [][]string
	addRow := func(code, label string, v rollup.Variance) {
		style := VarianceStyle(v.Amount)
		rows = append(rows, []string{
			code, label,
			FormatAmount(v.Planned), FormatAmount(v.Actual),
			style.Render(FormatAmount(v.Amount)), style.Render(FormatPct(v.Pct)),
		})
	}
	state.Tree.Walk(func(n budgettree.Node, _ bool) {
		addRow(n.Code, indentLabel(n), rollup.VarianceOf(state.Rollup.NodeTotal(n.Code)))
	})
	addRow("", Bold("Total"), rollup.VarianceOf(state.Rollup.GrandTotal()))
	return Header("planned vs actual") + "\n" + RenderTable(cols, rows)
}

// FormatBudgetStatus classifies the grand total against a +/- band around
// planned and lists the lines that overran their plan.
func FormatBudgetStatus(state *recompute.DerivedState, bandPct decimal.Decimal) string {
	total := rollup.VarianceOf(state.Rollup.GrandTotal())
	status := rollup.Classify(total, bandPct)

	var b strings.Builder
	b.WriteString(Header("budget status") + "\n")
	fmt.Fprintf(&b, "Planned %s · Actual %s · Variance %s  %s\n",
		FormatAmount(total.Planned), FormatAmount(total.Actual), FormatAmount(total.Amount),
		statusPill(status, total.Pct))
	b.WriteString(Dim(fmt.Sprintf("In budget within ±%s%% of planned", bandPct.String())) + "\n\n")

	items := state.Rollup.OutOfBudget()
	if len(items) == 0 {
		b.WriteString(StyleGreen.Render("All lines are within budget.") + "\n")
		return b.String()
	}
	cols := []Column{
		{Title: "CODE"}, {Title: "ITEM"},
		{Title: "PLANNED", Numeric: true}, {Title: "ACTUAL", Numeric: true},
		{Title: "VARIANCE", Numeric: true}, {Title: "VAR %", Numeric: true},
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.Code, it.Label,
			FormatAmount(it.Planned), FormatAmount(it.Actual),
			StyleRed.Render(FormatAmount(it.Amount)), StyleRed.Render(FormatPct(it.Pct)),
		})
	}
	b.WriteString(Bold("Lines out of budget") + "\n")
	b.WriteString(RenderTable(cols, rows))
	return b.String()
}

func statusPill(s rollup.Status, pct decimal.Decimal) string {
	label := fmt.Sprintf("%s (%s)", s, FormatPct(pct))
	switch s {
	case rollup.StatusAboveBudget:
		return StyleRed.Render("✖ " + label)
	case rollup.StatusUnderBudget:
		return StyleYellow.Render("◐ " + label)
	default:
		return StyleGreen.Render("✔ " + label)
	}
}

func indentLabel(n budgettree.Node) string {
	label := strings.Repeat("  ", int(n.Depth)) + n.Label
	if !n.IsLeaf {
		return Bold(label)
	}
	return label
}
