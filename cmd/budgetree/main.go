package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alexanderramin/budgetree/internal/cli"
	"github.com/alexanderramin/budgetree/internal/config"
	"github.com/alexanderramin/budgetree/internal/db"
	"github.com/alexanderramin/budgetree/internal/exporter"
	"github.com/alexanderramin/budgetree/internal/log"
	"github.com/alexanderramin/budgetree/internal/metrics"
	"github.com/alexanderramin/budgetree/internal/repository"
	"github.com/alexanderramin/budgetree/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configPath picks --config out of the arguments before the command tree
// exists; everything else is left for cobra.
func configPath(args []string) string {
	fs := pflag.NewFlagSet("budgetree", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	path := fs.String("config", "", "")
	_ = fs.Parse(args)
	return *path
}

func run() error {
	cfg, err := config.Load(configPath(os.Args[1:]))
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := log.ParseLevel(cfg.Log.Level)
	logLevel := new(slog.LevelVar)
	logLevel.Set(level)
	logger := log.New(os.Stderr, logLevel, log.ComponentCLI)

	// Open database
	database, err := db.OpenDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	budgetRepo := repository.NewSQLiteBudgetRepo(database)
	lineRepo := repository.NewSQLiteLineRepo(database)
	invoiceRepo := repository.NewSQLiteInvoiceRepo(database)
	paymentRepo := repository.NewSQLitePaymentRepo(database)
	needRepo := repository.NewSQLiteNeedRepo(database)
	linkRepo := repository.NewSQLiteLinkRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)

	recorder := metrics.New()
	observer := service.NewLogUseCaseObserver(log.New(os.Stderr, logLevel, log.ComponentService))

	app := &cli.App{
		Budgets:    service.NewBudgetService(budgetRepo, lineRepo, uow, recorder, observer),
		Settlement: service.NewSettlementService(invoiceRepo, paymentRepo, uow, recorder, observer),
		Needs:      service.NewNeedService(needRepo, linkRepo, uow, recorder, observer),
		Config:     cfg,
		Sinks: exporter.SinkFactory{
			Stdout: os.Stdout,
			S3:     exporter.S3Config{Region: cfg.Export.S3Region, Profile: cfg.Export.S3Profile},
		},
		LogLevel: logLevel,
		Logger:   logger,
	}

	// Confirmation prompts only make sense on a terminal.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Execute root command
	rootCmd := cli.NewRootCmd(app)
	execErr := rootCmd.Execute()

	if cfg.Metrics.Textfile != "" {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn("writing metrics textfile", log.FieldError, err)
		}
	}
	return execErr
}
