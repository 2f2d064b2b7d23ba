package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vsinha/linealloc/pkg/application/dto"
	"github.com/vsinha/linealloc/pkg/application/services/allocation"
	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/domain/repositories"
	"github.com/vsinha/linealloc/pkg/infrastructure/config"
	"github.com/vsinha/linealloc/pkg/infrastructure/events"
	"github.com/vsinha/linealloc/pkg/infrastructure/metrics"
	"github.com/vsinha/linealloc/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/linealloc/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/linealloc/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/linealloc/pkg/infrastructure/solver/simplex"
	"github.com/vsinha/linealloc/pkg/interfaces/cli/output"
)

// Config holds configuration for the solve command. Empty string fields fall
// back to the config file, then to the built-in defaults.
type Config struct {
	ScenarioDir  string
	DemandFile   string
	CapacityFile string
	RatesFile    string
	ConfigFile   string
	OutputDir    string
	Format       string
	Policy       string
	SaveName     string
	StoreDriver  string
	StoreDSN     string
	ListRuns     bool
	// RunID selects a saved run to report; Resolve solves its inputs again
	// and ExportDir receives them as scenario CSV files
	RunID     string
	Resolve   bool
	ExportDir string
	Metrics   bool
	Verbose   bool
	Help      bool

	Logger *slog.Logger
	// LogLevel, when set, is adjusted to the configured log level
	LogLevel *slog.LevelVar
	Stdout   io.Writer
}

// SolveCommand handles the main allocation logic
type SolveCommand struct {
	config Config
	logger *slog.Logger
	out    io.Writer
}

// NewSolveCommand creates a new solve command with the given configuration
func NewSolveCommand(config Config) *SolveCommand {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := config.Stdout
	if out == nil {
		out = os.Stdout
	}
	return &SolveCommand{config: config, logger: logger, out: out}
}

// Settings returns the file configuration with command-line overrides applied
func (c *SolveCommand) Settings() (config.Config, error) {
	settings := config.Default()
	if c.config.ConfigFile != "" {
		loaded, err := config.Load(c.config.ConfigFile)
		if err != nil {
			return settings, err
		}
		settings = loaded
	}

	if c.config.Policy != "" {
		settings.RedistributionPolicy = c.config.Policy
	}
	if c.config.StoreDriver != "" {
		settings.Store.Driver = c.config.StoreDriver
	}
	if c.config.StoreDSN != "" {
		settings.Store.DSN = c.config.StoreDSN
	}
	if c.config.Metrics {
		settings.Metrics.Enabled = true
	}
	if c.config.Verbose {
		settings.Log.Level = "debug"
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// Execute runs the solve command
func (c *SolveCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	settings, err := c.Settings()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if c.config.LogLevel != nil {
		level, _ := config.ParseLevel(settings.Log.Level)
		c.config.LogLevel.Set(level)
	}

	store, closeStore, err := openStore(ctx, settings.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	if c.config.ListRuns {
		return c.listRuns(ctx, store)
	}
	if c.config.RunID != "" {
		return c.openRun(ctx, settings, store)
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	files, err := c.resolveInputFiles()
	if err != nil {
		return fmt.Errorf("failed to resolve input files: %w", err)
	}

	if c.config.Verbose {
		c.printHeader(files, settings)
		fmt.Fprintln(c.out, "📂 Loading data from CSV files...")
	}

	scenarioRepo := memory.NewScenarioRepository()
	err = csv.NewLoader().LoadScenario(scenarioRepo, files["Demand"], files["Capacity"], files["Rates"])
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}

	demand, err := scenarioRepo.GetDemand()
	if err != nil {
		return err
	}
	capacity, err := scenarioRepo.GetCapacity()
	if err != nil {
		return err
	}
	rates, err := scenarioRepo.GetRates()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ Data loaded successfully:\n")
		fmt.Fprintf(c.out, "  Demand entries: %d\n", len(demand))
		fmt.Fprintf(c.out, "  Capacity entries: %d\n", len(capacity))
		fmt.Fprintf(c.out, "  Rate entries: %d\n", len(rates))
		fmt.Fprintln(c.out)
	}

	return c.solve(ctx, settings, store, entities.NewRunInputs(demand, capacity, rates), files)
}

// solve allocates the inputs, writes the report and saves the run if asked
func (c *SolveCommand) solve(
	ctx context.Context,
	settings config.Config,
	store repositories.RunRepository,
	inputs entities.RunInputs,
	files map[string]string,
) error {
	var registry *prometheus.Registry
	serviceConfig := allocation.Config{
		FallbackRate:        settings.FallbackRate,
		ExtractionTolerance: settings.ExtractionTolerance,
		Policy:              settings.Policy(),
		Logger:              c.logger,
	}
	if settings.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		recorder, err := metrics.NewRecorder(registry)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		serviceConfig.Metrics = recorder
	}

	eventStore := events.NewInMemoryEventStoreWithLogger(c.logger)
	err := eventStore.Subscribe(
		[]string{events.FallbackUsedEvent, events.GapRecordedEvent, events.SolveFailedEvent},
		&events.HandlerFunc{
			Types: []string{events.FallbackUsedEvent, events.GapRecordedEvent, events.SolveFailedEvent},
			Fn: func(e events.Event) error {
				c.logger.Debug("event", "type", e.Type(), "run", e.StreamID(), "version", e.Version())
				return nil
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	solver := simplex.NewSolverWithConfig(simplex.Config{Tolerance: settings.Solver.Tolerance})
	service := allocation.NewEventDrivenServiceWithConfig(solver, serviceConfig, eventStore)

	if c.config.Verbose {
		fmt.Fprintf(c.out, "🔄 Solving allocation (%s)...\n", serviceConfig.Policy)
	}

	result, err := service.Solve(ctx, inputs.Demand, inputs.Capacity, inputs.Rates)
	eventStore.Wait()
	if err != nil {
		return fmt.Errorf("error solving allocation: %w", err)
	}

	if c.config.Verbose {
		fmt.Fprintf(c.out, "✅ Allocation solved in %v\n\n", result.Stats.SolveTime)
	}

	outputConfig := output.Config{
		Format:     c.config.Format,
		OutputDir:  c.config.OutputDir,
		Verbose:    c.config.Verbose,
		SolveTime:  result.Stats.SolveTime,
		InputFiles: files,
		Stdout:     c.out,
	}
	if err := output.Generate(result, outputConfig); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if c.config.SaveName != "" {
		run, err := result.ToRun(c.config.SaveName, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to build run: %w", err)
		}
		run.Inputs = inputs
		if err := store.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Fprintf(c.out, "💾 Saved run %q as %s (%s store)\n", run.Name, run.ID, settings.Store.Driver)
	}

	if registry != nil {
		if err := c.exportMetrics(registry); err != nil {
			return err
		}
	}

	if c.config.Verbose {
		fmt.Fprintln(c.out, "🏁 Allocation complete!")
	}
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (repositories.RunRepository, func(), error) {
	switch cfg.Driver {
	case config.StoreMemory, "":
		return memory.NewRunRepository(), func() {}, nil
	default:
		store, err := sqlstore.Open(ctx, cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open run store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	}
}

// openRun reports a saved run, exports its inputs or solves them again
func (c *SolveCommand) openRun(ctx context.Context, settings config.Config, store repositories.RunRepository) error {
	id, err := uuid.Parse(c.config.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", c.config.RunID, err)
	}
	run, err := store.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}

	if c.config.ExportDir != "" {
		in := run.Inputs
		if err := csv.WriteScenarioDir(c.config.ExportDir, in.Demand, in.Capacity, in.Rates); err != nil {
			return fmt.Errorf("failed to export run inputs: %w", err)
		}
		fmt.Fprintf(c.out, "💾 Inputs of run %s saved to: %s\n", run.ID, c.config.ExportDir)
	}

	if !c.config.Resolve {
		if c.config.Verbose {
			fmt.Fprintf(c.out, "📼 Run %q (%s) created %s\n\n",
				run.Name, run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		outputConfig := output.Config{
			Format:    c.config.Format,
			OutputDir: c.config.OutputDir,
			Verbose:   c.config.Verbose,
			Stdout:    c.out,
		}
		if err := output.Generate(dto.FromRun(run), outputConfig); err != nil {
			return fmt.Errorf("error generating output: %w", err)
		}
		return nil
	}

	if run.Inputs.Empty() {
		return fmt.Errorf("run %s was saved without its inputs", run.ID)
	}
	// the run's own policy applies unless one is given on the command line
	if c.config.Policy == "" && run.Policy != "" {
		settings.RedistributionPolicy = run.Policy
		if err := settings.Validate(); err != nil {
			return fmt.Errorf("run %s: %w", run.ID, err)
		}
	}
	if c.config.Verbose {
		fmt.Fprintf(c.out, "🔁 Solving inputs of run %q (%s) again\n\n", run.Name, run.ID)
	}
	return c.solve(ctx, settings, store, run.Inputs, map[string]string{"Run": run.ID.String()})
}

func (c *SolveCommand) listRuns(ctx context.Context, store repositories.RunRepository) error {
	summaries, err := store.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(c.out, "No saved runs")
		return nil
	}

	fmt.Fprintf(c.out, "%-36s %-20s %-20s %-16s %8s %12s\n",
		"ID", "Name", "Created", "Policy", "Rows", "Unmet (kg)")
	for _, s := range summaries {
		fmt.Fprintf(c.out, "%-36s %-20s %-20s %-16s %8d %12.2f\n",
			s.ID, s.Name, s.CreatedAt.Format("2006-01-02 15:04:05"), s.Policy, s.Allocations, s.GapMass)
	}
	return nil
}

// exportMetrics writes the registry to OutputDir/metrics.prom, or prints
// the gathered values when there is no output directory
func (c *SolveCommand) exportMetrics(registry *prometheus.Registry) error {
	if c.config.OutputDir != "" {
		path, err := metrics.WriteTextfile(registry, c.config.OutputDir)
		if err != nil {
			return err
		}
		if c.config.Verbose {
			fmt.Fprintf(c.out, "💾 Metrics saved to: %s\n", path)
		}
		return nil
	}

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	fmt.Fprintf(c.out, "📏 Metrics:\n")
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(c.out, "  %-50s %g\n", name, m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(c.out, "  %-50s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}

// validateInputs validates the command configuration
func (c *SolveCommand) validateInputs() error {
	if c.config.ScenarioDir == "" &&
		(c.config.DemandFile == "" || c.config.CapacityFile == "" || c.config.RatesFile == "") {
		return fmt.Errorf("must specify either -scenario directory or -demand, -capacity and -rates files")
	}
	return nil
}

// resolveInputFiles determines the actual file paths to use
func (c *SolveCommand) resolveInputFiles() (map[string]string, error) {
	var demandPath, capacityPath, ratesPath string

	if c.config.ScenarioDir != "" {
		demandPath = filepath.Join(c.config.ScenarioDir, csv.DemandFile)
		capacityPath = filepath.Join(c.config.ScenarioDir, csv.CapacityFile)
		ratesPath = filepath.Join(c.config.ScenarioDir, csv.RatesFile)
	} else {
		demandPath = c.config.DemandFile
		capacityPath = c.config.CapacityFile
		ratesPath = c.config.RatesFile
	}

	files := map[string]string{
		"Demand":   demandPath,
		"Capacity": capacityPath,
		"Rates":    ratesPath,
	}

	for name, path := range files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", name, path)
		}
	}
	return files, nil
}

func (c *SolveCommand) printHeader(files map[string]string, settings config.Config) {
	fmt.Fprintf(c.out, "🚀 Line Allocation CLI\n")
	fmt.Fprintf(c.out, "Input files:\n")
	fmt.Fprintf(c.out, "  Demand: %s\n", files["Demand"])
	fmt.Fprintf(c.out, "  Capacity: %s\n", files["Capacity"])
	fmt.Fprintf(c.out, "  Rates: %s\n", files["Rates"])
	fmt.Fprintf(c.out, "Policy: %s\n", settings.Policy())
	fmt.Fprintf(c.out, "Output format: %s\n", c.config.Format)
	if c.config.OutputDir != "" {
		fmt.Fprintf(c.out, "Output directory: %s\n", c.config.OutputDir)
	}
	fmt.Fprintln(c.out)
}

func (c *SolveCommand) showHelp() {
	fmt.Fprint(c.out, `linealloc - production allocation across lines with a fallback line

USAGE:
    linealloc -scenario <directory>
    linealloc -demand <file> -capacity <file> -rates <file>
    linealloc -list-runs -store sqlite -dsn runs.db
    linealloc -run <id> [-resolve] [-export <dir>] -store sqlite -dsn runs.db

OPTIONS:
    -scenario <dir>     Directory containing demand.csv, capacity.csv and rates.csv
    -demand <file>      Path to demand CSV file
    -capacity <file>    Path to capacity CSV file
    -rates <file>       Path to rates CSV file
    -config <file>      YAML configuration file
    -output <dir>       Output directory for results (optional)
    -format <fmt>       Output format: text, json, csv, html (default: text)
    -policy <name>      Redistribution policy: capacity_bounded, equal_split
    -save <name>        Save the run under this name
    -store <driver>     Run store: memory, sqlite, pgx
    -dsn <dsn>          Data source for the sqlite or pgx store
    -list-runs          List saved runs and exit
    -run <id>           Report a saved run instead of solving CSV inputs
    -resolve            With -run, solve the saved inputs again
    -export <dir>       With -run, write the saved inputs as scenario CSV files
    -metrics            Record solve metrics (written to <output>/metrics.prom)
    -verbose            Enable verbose output
    -help               Show this help message

CSV FILE FORMATS:

demand.csv:
    period,category,product,demand_kg
    2024-W01,Chocolate,Dark70,1200

capacity.csv:
    period,category,line,available_hours
    2024-W01,Chocolate,Line_1,80

rates.csv:
    period,category,line,product,kg_per_hour
    2024-W01,Chocolate,Line_1,Dark70,15

EXAMPLES:
    linealloc -scenario examples/weekly -verbose
    linealloc -scenario examples/weekly -format csv -output results/
    linealloc -scenario examples/weekly -policy equal_split -save week1 -store sqlite -dsn runs.db
`)
}
