package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/lmittmann/tint"

	"github.com/vsinha/linealloc/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		demandFile   = flag.String("demand", "", "Path to demand CSV file")
		capacityFile = flag.String("capacity", "", "Path to capacity CSV file")
		ratesFile    = flag.String("rates", "", "Path to rates CSV file")
		configFile   = flag.String("config", "", "Path to YAML configuration file")
		outputDir    = flag.String("output", "", "Output directory for results (optional)")
		format       = flag.String("format", "text", "Output format: text, json, csv, html")
		policy       = flag.String("policy", "", "Redistribution policy: capacity_bounded, equal_split")
		saveName     = flag.String("save", "", "Save the run under this name")
		storeDriver  = flag.String("store", "", "Run store driver: memory, sqlite, pgx")
		storeDSN     = flag.String("dsn", "", "Data source name for the run store")
		listRuns     = flag.Bool("list-runs", false, "List saved runs and exit")
		runID        = flag.String("run", "", "ID of a saved run to report")
		resolve      = flag.Bool("resolve", false, "With -run, solve the saved inputs again")
		exportDir    = flag.String("export", "", "With -run, write the saved inputs as scenario CSV files")
		withMetrics  = flag.Bool("metrics", false, "Record solve metrics in Prometheus text format")
		verbose      = flag.Bool("verbose", false, "Enable verbose output")
		help         = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	}))
	slog.SetDefault(logger)

	config := commands.Config{
		ScenarioDir:  *scenarioDir,
		DemandFile:   *demandFile,
		CapacityFile: *capacityFile,
		RatesFile:    *ratesFile,
		ConfigFile:   *configFile,
		OutputDir:    *outputDir,
		Format:       *format,
		Policy:       *policy,
		SaveName:     *saveName,
		StoreDriver:  *storeDriver,
		StoreDSN:     *storeDSN,
		ListRuns:     *listRuns,
		RunID:        *runID,
		Resolve:      *resolve,
		ExportDir:    *exportDir,
		Metrics:      *withMetrics,
		Verbose:      *verbose,
		Help:         *help,
		Logger:       logger,
		LogLevel:     level,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := commands.NewSolveCommand(config)
	if err := cmd.Execute(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
