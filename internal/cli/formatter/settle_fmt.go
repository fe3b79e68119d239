package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
)

const settleBarWidth = 12

// FormatLedgerImport renders the count of imported invoices or payments.
func FormatLedgerImport(kind string, resp *contract.LedgerImportResponse) string {
	return fmt.Sprintf("%s Imported %d %s %s.\n",
		StyleGreen.Render("✔"), resp.Imported, resp.Direction, kind)
}

// FormatSettlement renders one block per counterparty: invoices in
// settlement order with their progress, then residuals and payments that
// did not take part.
func FormatSettlement(resp *contract.SettleResponse) string {
	if len(resp.Results) == 0 {
		return Dim(fmt.Sprintf("No %s invoices or payments to settle.", resp.Direction)) + "\n"
	}

	var b strings.Builder
	for i, res := range resp.Results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Header(res.Counterparty) + "\n")

		cols := []Column{
			{Title: "INVOICE"}, {Title: "DUE"},
			{Title: "AMOUNT", Numeric: true},
			{Title: strings.ToUpper(resp.Direction.SettledLabel()), Numeric: true},
			{Title: "OUTSTANDING", Numeric: true},
			{Title: "PROGRESS"},
		}
		rows := make([][]string, 0, len(res.Invoices))
		for _, inv := range res.Invoices {
			rows = append(rows, []string{
				inv.InvoiceNo, FormatDate(inv.DueDate),
				FormatAmount(inv.Amount), FormatAmount(inv.Settled), FormatAmount(inv.Outstanding()),
				RenderProgress(inv.Settled, inv.Amount, settleBarWidth),
			})
		}
		if len(rows) > 0 {
			b.WriteString(RenderTable(cols, rows))
		} else {
			b.WriteString(Dim("No invoices.") + "\n")
		}

		for _, r := range res.Residuals {
			b.WriteString(StyleYellow.Render(fmt.Sprintf("  residual %s on payment %s", FormatAmount(r.Amount), r.PaymentNo)) + "\n")
		}
		for _, p := range res.Ineligible {
			fmt.Fprintf(&b, "  %s %s %s\n", Dim("skipped "+p.PaymentNo), FormatAmount(p.Amount), PaymentStatusPill(p.Status, resp.Direction))
		}
	}

	settled, outstanding := resp.Totals()
	fmt.Fprintf(&b, "\n%s %s   %s %s\n",
		Bold("Total "+resp.Direction.SettledLabel()+":"), FormatAmount(settled),
		Bold("Outstanding:"), FormatAmount(outstanding))
	for _, st := range resp.PendingByStatus() {
		fmt.Fprintf(&b, "%s %s %s\n",
			Bold("Not settling, "+statusLabel(st.Status)+":"), FormatAmount(st.Amount),
			Dim(fmt.Sprintf("(%d)", st.Count)))
	}
	return b.String()
}

func statusLabel(s domain.PaymentStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// FormatWarnings renders warnings as a yellow list.
func FormatWarnings(warnings []domain.Warning) string {
	if len(warnings) == 0 {
		return ""
	}
	var b strings.Builder
	for _, w := range warnings {
		b.WriteString(StyleYellow.Render("⚠ "+w.Message) + "\n")
	}
	return b.String()
}
