package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/alexanderramin/budgetree/internal/cli/formatter"
	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/alexanderramin/budgetree/internal/exporter"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newBudgetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Import, inspect and export budgets",
		Long: `Budgets are referenced by ID, a unique ID prefix, a name (latest
version) or name@version.`,
	}

	cmd.AddCommand(
		newBudgetImportCmd(app),
		newBudgetListCmd(app),
		newBudgetValidateCmd(app),
		newBudgetTreeCmd(app),
		newBudgetRollupCmd(app),
		newBudgetExportCmd(app),
		newBudgetRemoveCmd(app),
	)

	return cmd
}

// bindImportHeaderFlags registers the flags that override budget header fields.
func bindImportHeaderFlags(fs *pflag.FlagSet, req *contract.ImportBudgetRequest) {
	fs.StringVar(&req.Name, "name", "", "Budget name (default: file metadata, then file name)")
	fs.StringVar(&req.Version, "version", "", "Budget version (default v1)")
	fs.StringVar(&req.Type, "type", "", "Budget type: company or project")
	fs.StringVar(&req.Project, "project", "", "Project the budget belongs to")
	fs.StringVar(&req.Currency, "currency", "", "Currency code (default "+domain.DefaultCurrency+")")
}

func newBudgetImportCmd(app *App) *cobra.Command {
	req := contract.NewImportBudgetRequest("")
	var multi []string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a budget from CSV, XLSX or JSON",
		Long: `Import a budget file. Wide files carry one column per month
(YYYY-MM for planned, Actual:YYYY-MM for actual); long files carry one row
per code and month. Importing a name@version that already exists replaces
its lines.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Path = args[0]
			req.MultiDimensions = app.Config.Import.MultiDimensions
			if cmd.Flags().Changed("multi") {
				req.MultiDimensions = multi
			}

			report, err := app.Budgets.Import(cmd.Context(), req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			verb := "Updated"
			if report.Created {
				verb = "Created"
			}
			fmt.Fprintf(out, "%s budget %s@%s [%s]\n\n", verb, report.Budget.Name, report.Budget.Version, formatter.TruncID(report.Budget.ID))
			fmt.Fprint(out, formatter.FormatBudgetReport(report))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Format, "format", "auto", "Input layout: auto, wide, long or json")
	cmd.Flags().StringVar(&req.Sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().StringSliceVar(&multi, "multi", nil, "Dimension columns holding ','/';' separated lists")
	bindImportHeaderFlags(cmd.Flags(), &req)

	return cmd
}

func newBudgetListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			budgets, err := app.Budgets.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatBudgetList(budgets))
			return nil
		},
	}
}

func newBudgetValidateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <budget>",
		Short: "Check the tree of a stored budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := app.Budgets.Validate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatBudgetReport(report))
			if !report.Valid() {
				return fmt.Errorf("budget %s@%s has %d tree errors", report.Budget.Name, report.Budget.Version, len(report.Errors))
			}
			return nil
		},
	}
}

func newBudgetTreeCmd(app *App) *cobra.Command {
	var bucket string

	cmd := &cobra.Command{
		Use:   "tree <budget>",
		Short: "Show the budget hierarchy with totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key domain.BucketKey
			if bucket != "" {
				var err error
				if key, err = domain.ParseBucketKey(bucket); err != nil {
					return err
				}
			}

			b, state, err := app.Budgets.Derive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			title := fmt.Sprintf("%s@%s", b.Name, b.Version)
			if key != "" {
				title += " · " + string(key)
			}
			fmt.Fprintln(out, formatter.Header(title))
			fmt.Fprint(out, formatter.FormatTree(state, key))
			fmt.Fprint(out, formatter.FormatWarnings(state.Warnings()))
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Show a single month (YYYY-MM)")
	return cmd
}

func newBudgetRollupCmd(app *App) *cobra.Command {
	var metric string
	var band float64

	cmd := &cobra.Command{
		Use:   "rollup <budget>",
		Short: "Show aggregates per node and month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metric = strings.ToLower(strings.TrimSpace(metric))
			if band < 0 {
				return fmt.Errorf("--band %v cannot be negative", band)
			}
			if metric != "both" {
				if _, err := domain.ParseMetric(metric); err != nil {
					return err
				}
			}

			_, state, err := app.Budgets.Derive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatRollup(state, metric))
			if metric == "both" {
				fmt.Fprintln(out)
				fmt.Fprint(out, formatter.FormatBudgetStatus(state, decimal.NewFromFloat(band)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", "planned", "planned, actual or both")
	cmd.Flags().Float64Var(&band, "band", app.Config.Report.StatusBandPct, "In-budget band in percent of planned (with --metric both)")
	return cmd
}

func newBudgetExportCmd(app *App) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "export <budget>",
		Short: "Export a budget as long-format rows",
		Long: `Export every line as one row per month. --out accepts a file
path, "-" for stdout, or s3://bucket/key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exporter.ParseFormat(format)
			if err != nil {
				return err
			}

			sinks := app.Sinks
			sinks.Stdout = cmd.OutOrStdout()
			sink, err := sinks.Open(cmd.Context(), out)
			if err != nil {
				return err
			}

			if err := app.Budgets.Export(cmd.Context(), args[0], f, sink); err != nil {
				return err
			}
			if _, toStdout := sink.(exporter.WriterSink); !toStdout {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", args[0], sink)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Destination: path, - or s3://bucket/key")
	return cmd
}

func newBudgetRemoveCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <budget>",
		Short: "Delete a budget and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := app.Budgets.Resolve(ctx, args[0])
			if err != nil {
				return err
			}
			label := fmt.Sprintf("%s@%s", b.Name, b.Version)

			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to remove %s without --yes", label)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Remove budget %s and all its lines? [y/N] ", label)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if err := app.Budgets.Remove(ctx, b.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed budget %s\n", label)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
