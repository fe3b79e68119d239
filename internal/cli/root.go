package cli

import (
	"log/slog"

	"github.com/alexanderramin/budgetree/internal/config"
	"github.com/alexanderramin/budgetree/internal/exporter"
	"github.com/alexanderramin/budgetree/internal/service"
	"github.com/spf13/cobra"
)

// App holds the services and settings used by CLI commands.
type App struct {
	Budgets    service.BudgetService
	Settlement service.SettlementService
	Needs      service.NeedService

	Config config.Config
	Sinks  exporter.SinkFactory

	// LogLevel, when set, is lowered to debug by --verbose.
	LogLevel *slog.LevelVar
	Logger   *slog.Logger

	// IsInteractive reports whether stdin is a terminal. Nil means it is not.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// NewRootCmd creates the top-level "budgetree" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "budgetree",
		Short:         "Hierarchical budgets, rollups and FIFO settlement",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose && app.LogLevel != nil {
				app.LogLevel.Set(slog.LevelDebug)
			}
			app.logger().Debug("command", "path", cmd.CommandPath(), "args", args)
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
	// Read by main before the command tree is built.
	root.PersistentFlags().String("config", "", "Config file (default ~/.budgetree/config.yaml)")

	root.AddCommand(
		newBudgetCmd(app),
		newSettleCmd(app),
		newNeedCmd(app),
	)

	return root
}
