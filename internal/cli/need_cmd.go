package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/budgetree/internal/cli/formatter"
	"github.com/alexanderramin/budgetree/internal/contract"
	"github.com/alexanderramin/budgetree/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newNeedCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "need",
		Short: "Track need requests and link their quantities to BOQ items",
	}

	cmd.AddCommand(
		newNeedCreateCmd(app),
		newNeedListCmd(app),
		newNeedAddLineCmd(app),
		newNeedLinkCmd(app),
		newNeedShowCmd(app),
	)

	return cmd
}

func parseQuantity(s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q", s)
	}
	return q, nil
}

func newNeedCreateCmd(app *App) *cobra.Command {
	var title, project, requester, date, notes string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a need request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &domain.NeedRequest{
				Title:     title,
				ProjectID: project,
				Requester: requester,
				Notes:     notes,
			}
			if date != "" {
				d, err := time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
				r.Date = d
			}

			if err := app.Needs.CreateRequest(cmd.Context(), r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created need request %q [%s]\n", r.Title, r.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Request title")
	cmd.Flags().StringVar(&project, "project", "", "Project the resources are for")
	cmd.Flags().StringVar(&requester, "requester", "", "Who asked for the resources")
	cmd.Flags().StringVar(&date, "date", "", "Request date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newNeedListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List need requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, err := app.Needs.ListRequests(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNeedRequests(requests))
			return nil
		},
	}
}

func newNeedAddLineCmd(app *App) *cobra.Command {
	var qty string
	var l domain.NeedLine

	cmd := &cobra.Command{
		Use:   "add-line",
		Short: "Add a requested resource to a need request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuantity(qty)
			if err != nil {
				return err
			}
			line := l
			line.Quantity = q

			if err := app.Needs.AddLine(cmd.Context(), &line); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s of %s [%s]\n",
				formatter.FormatQuantity(line.Quantity), line.Unit, line.ResourceID, line.ID)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&l.RequestID, "request", "", "Need request ID")
	fs.StringVar(&l.ResourceID, "resource", "", "Resource being requested")
	fs.StringVar(&qty, "qty", "", "Requested quantity")
	fs.StringVar(&l.Unit, "unit", "", "Unit of measure")
	fs.StringVar(&l.ProjectID, "project", "", "Project (default: the request's project)")
	fs.StringVar(&l.WBSID, "wbs", "", "WBS element")
	fs.StringVar(&l.BOQID, "boq", "", "Bill of quantities")
	fs.StringVar(&l.BOQItemID, "item", "", "BOQ item")
	fs.StringVar(&l.BOQDetailID, "detail", "", "BOQ item detail")
	fs.StringVar(&l.Notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("request")
	_ = cmd.MarkFlagRequired("resource")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

func newNeedLinkCmd(app *App) *cobra.Command {
	var lineID, qty string
	var target domain.LinkTarget

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Link part of a need line's quantity to a BOQ position",
		Long: `Link quantity from a need line to a BOQ position. The links of a
line can never add up to more than its requested quantity.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseQuantity(qty)
			if err != nil {
				return err
			}

			link, err := app.Needs.Link(cmd.Context(), contract.LinkRequest{
				LineID:   lineID,
				Quantity: q,
				Target:   target,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked %s to %s [%s]\n",
				formatter.FormatQuantity(link.LinkedQuantity), link.Target, link.ID)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&lineID, "line", "", "Need line ID")
	fs.StringVar(&qty, "qty", "", "Quantity to link")
	fs.StringVar(&target.BOQID, "boq", "", "Bill of quantities")
	fs.StringVar(&target.ItemID, "item", "", "BOQ item")
	fs.StringVar(&target.DetailID, "detail", "", "BOQ item detail")
	fs.StringVar(&target.WBSID, "wbs", "", "WBS element")
	_ = cmd.MarkFlagRequired("line")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

func newNeedShowCmd(app *App) *cobra.Command {
	var requestID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a need request with linked and remaining quantities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.Needs.Show(cmd.Context(), requestID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNeedRequest(view))
			return nil
		},
	}

	cmd.Flags().StringVar(&requestID, "request", "", "Need request ID")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}
