package cli

import (
	"fmt"

	"github.com/alexanderramin/budgetree/internal/cli/formatter"
	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/log"
	"github.com/spf13/cobra"
)

func newSettleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Import invoices and payments and settle them oldest-due-first",
	}

	invoices := &cobra.Command{Use: "invoices", Short: "Manage invoices"}
	invoices.AddCommand(newLedgerImportCmd(app, "invoices"))

	payments := &cobra.Command{Use: "payments", Short: "Manage payments"}
	payments.AddCommand(newLedgerImportCmd(app, "payments"))

	cmd.AddCommand(invoices, payments, newSettleRunCmd(app))
	return cmd
}

func newLedgerImportCmd(app *App, kind string) *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: fmt.Sprintf("Import %s from CSV or XLSX", kind),
		Long: fmt.Sprintf(`Import %s. Rows are matched on their number within a
direction, so importing the same file again updates them in place.`, kind),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := domain.ParseDirection(direction)
			if err != nil {
				return err
			}

			var resp *contract.LedgerImportResponse
			if kind == "invoices" {
				resp, err = app.Settlement.ImportInvoices(cmd.Context(), args[0], dir)
			} else {
				resp, err = app.Settlement.ImportPayments(cmd.Context(), args[0], dir)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatLedgerImport(kind, resp))
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "", "receivable or payable")
	_ = cmd.MarkFlagRequired("direction")
	return cmd
}

func newSettleRunCmd(app *App) *cobra.Command {
	var direction, counterparty string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Recompute settled amounts from scratch",
		Long: `Apply eligible payments to invoices per counterparty, oldest due
date first, and store each invoice's settled amount. Receivables settle
on "collected" payments, payables on "paid".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := domain.ParseDirection(direction)
			if err != nil {
				return err
			}

			resp, err := app.Settlement.Run(cmd.Context(), contract.SettleRequest{
				Direction:    dir,
				Counterparty: counterparty,
			})
			if err != nil {
				return err
			}
			settled, outstanding := resp.Totals()
			app.logger().Debug("settlement done",
				log.FieldDirection, dir, "counterparties", len(resp.Results),
				"settled", settled.String(), "outstanding", outstanding.String())

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatSettlement(resp))
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", string(domain.Receivable), "receivable or payable")
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "Settle a single counterparty")
	return cmd
}
