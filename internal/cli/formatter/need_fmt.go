package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
)

// FormatNeedRequests renders need requests as a table.
func FormatNeedRequests(requests []*domain.NeedRequest) string {
	if len(requests) == 0 {
		return Dim("No need requests found.") + "\n"
	}
	cols := Cols("ID", "TITLE", "PROJECT", "REQUESTER", "DATE")
	rows := make([][]string, 0, len(requests))
	for _, r := range requests {
		rows = append(rows, []string{TruncID(r.ID), Bold(r.Title), r.ProjectID, r.Requester, FormatDate(r.Date)})
	}
	return RenderTable(cols, rows)
}

// FormatNeedRequest renders one request with per-line link progress and
// the links themselves.
func FormatNeedRequest(v *contract.NeedRequestView) string {
	var b strings.Builder
	r := v.Request

	var info strings.Builder
	fmt.Fprintf(&info, "%s %s\n", Dim("ID:"), r.ID)
	fmt.Fprintf(&info, "%s %s\n", Dim("Project:"), r.ProjectID)
	if r.Requester != "" {
		fmt.Fprintf(&info, "%s %s\n", Dim("Requester:"), r.Requester)
	}
	fmt.Fprintf(&info, "%s %s", Dim("Date:"), FormatDate(r.Date))
	if r.Notes != "" {
		fmt.Fprintf(&info, "\n%s %s", Dim("Notes:"), r.Notes)
	}
	b.WriteString(RenderBox(r.Title, info.String()) + "\n\n")

	if len(v.Lines) == 0 {
		b.WriteString(Dim("No lines yet. Add one with: budgetree need add-line") + "\n")
		return b.String()
	}

	cols := []Column{
		{Title: "LINE"}, {Title: "RESOURCE"},
		{Title: "QTY", Numeric: true}, {Title: "UNIT"},
		{Title: "LINKED", Numeric: true}, {Title: "REMAINING", Numeric: true},
		{Title: "PROGRESS"},
	}
	rows := make([][]string, 0, len(v.Lines))
	for _, lv := range v.Lines {
		rows = append(rows, []string{
			TruncID(lv.Line.ID), lv.Line.ResourceID,
			FormatQuantity(lv.Line.Quantity), lv.Line.Unit,
			FormatQuantity(lv.Linked), FormatQuantity(lv.Remaining),
			RenderProgress(lv.Linked, lv.Line.Quantity, 10),
		})
	}
	b.WriteString(Header("Lines") + "\n" + RenderTable(cols, rows))

	if len(v.Links) > 0 {
		linkRows := make([][]string, 0, len(v.Links))
		for _, l := range v.Links {
			linkRows = append(linkRows, []string{
				TruncID(l.SourceLineID), l.Target.String(), FormatQuantity(l.LinkedQuantity), FormatDate(l.CreatedAt),
			})
		}
		linkCols := []Column{{Title: "LINE"}, {Title: "TARGET"}, {Title: "QTY", Numeric: true}, {Title: "LINKED ON"}}
		b.WriteString("\n" + Header("Links") + "\n" + RenderTable(linkCols, linkRows))
	}
	return b.String()
}
