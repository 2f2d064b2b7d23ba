package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/linealloc/pkg/application/dto"
	"github.com/vsinha/linealloc/pkg/domain/entities"
)

// File names written by the csv, json and html formats
const (
	AllocationFile    = "allocation.csv"
	UtilizationFile   = "utilization.csv"
	RawAllocationFile = "raw_allocation.csv"
	GapsFile          = "gaps.csv"
	RateGapsFile      = "rate_gaps.csv"
	JSONFile          = "allocation_results.json"
	HTMLFile          = "utilization.html"
)

// Config holds configuration for output generation
type Config struct {
	Format     string
	OutputDir  string
	Verbose    bool
	SolveTime  time.Duration
	InputFiles map[string]string
	// Stdout receives console output; os.Stdout when nil
	Stdout io.Writer
}

func (c Config) stdout() io.Writer {
	if c.Stdout == nil {
		return os.Stdout
	}
	return c.Stdout
}

// Generate creates output in the specified format
func Generate(result *dto.AllocationResult, config Config) error {
	switch config.Format {
	case "text", "":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	case "html":
		return generateHTMLOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// formatAmount renders a value with a fixed number of decimals
func formatAmount(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func formatRatio(u entities.UtilizationRatio) string {
	if !u.Defined() {
		return "n/a"
	}
	return formatAmount(u.Ratio, 3)
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.AllocationResult, config Config) error {
	w := config.stdout()
	stats := result.Stats

	fmt.Fprintf(w, "📊 Allocation Results Summary\n")
	fmt.Fprintf(w, "=============================\n\n")

	fmt.Fprintf(w, "Run ID: %s\n", result.RunID)
	fmt.Fprintf(w, "Policy: %s\n", stats.Policy)
	fmt.Fprintf(w, "Periods: %d  Categories: %d  Products: %d  Lines: %d\n",
		stats.Periods, stats.Categories, stats.Products, stats.Lines)
	fmt.Fprintf(w, "Model: %d variables, %d constraints\n", stats.Variables, stats.Constraints)
	fmt.Fprintf(w, "Demand: %s kg  Allocated: %s kg over %s h\n",
		formatAmount(stats.DemandMass, 2), formatAmount(stats.TotalMass, 2), formatAmount(stats.TotalHours, 2))
	fmt.Fprintf(w, "Fallback: %s kg  Unmet: %s kg\n",
		formatAmount(stats.FallbackMass, 2), formatAmount(stats.GapMass, 2))
	fmt.Fprintf(w, "Solve Time: %v\n\n", config.SolveTime)

	if len(result.Allocations) > 0 {
		fmt.Fprintf(w, "🏭 Allocations:\n")
		fmt.Fprintf(w, "%-8s %-12s %-12s %-12s %12s %12s\n",
			"Period", "Category", "Line", "Product", "Hours", "Mass (kg)")
		fmt.Fprintf(w, "%-8s %-12s %-12s %-12s %12s %12s\n",
			"--------", "------------", "------------", "------------", "------------", "------------")
		for _, a := range result.Allocations {
			fmt.Fprintf(w, "%-8s %-12s %-12s %-12s %12s %12s\n",
				a.Period, a.Category, a.Line, a.Product,
				formatAmount(a.Hours, 2), formatAmount(a.Mass, 2))
		}
		fmt.Fprintln(w)
	}

	if len(result.Utilization) > 0 {
		fmt.Fprintf(w, "📈 Utilization:\n")
		fmt.Fprintf(w, "%-8s %-12s %-12s %10s %10s %8s %-14s\n",
			"Period", "Category", "Line", "Capacity", "Realized", "Ratio", "Band")
		fmt.Fprintf(w, "%-8s %-12s %-12s %10s %10s %8s %-14s\n",
			"--------", "------------", "------------", "----------", "----------", "--------", "--------------")
		for _, u := range result.Utilization {
			fmt.Fprintf(w, "%-8s %-12s %-12s %10s %10s %8s %-14s\n",
				u.Period, u.Category, u.Line,
				formatAmount(u.Capacity, 2), formatAmount(u.RealizedHours, 2),
				formatRatio(u), u.Band())
		}
		fmt.Fprintln(w)
	}

	if len(result.Gaps) > 0 {
		fmt.Fprintf(w, "⚠️  Unmet Demand:\n")
		fmt.Fprintf(w, "%-8s %-12s %-12s %12s %14s\n",
			"Period", "Category", "Product", "Mass (kg)", "Eligible Lines")
		fmt.Fprintf(w, "%-8s %-12s %-12s %12s %14s\n",
			"--------", "------------", "------------", "------------", "--------------")
		for _, g := range result.Gaps {
			fmt.Fprintf(w, "%-8s %-12s %-12s %12s %14d\n",
				g.Period, g.Category, g.Product, formatAmount(g.Mass, 2), g.EligibleLines)
		}
		fmt.Fprintln(w)
	}

	if config.Verbose {
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "⚠️  %s\n", warning)
		}
		for _, g := range result.RateGaps {
			fmt.Fprintf(w, "⚠️  no rate for %s on %s/%s/%s (record from %s, %s kg)\n",
				g.Product, g.Period, g.Category, g.Line, g.RecordCategory, formatAmount(g.Mass, 2))
		}
	}

	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.AllocationResult, config Config) error {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.stdout(), string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, JSONFile)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per result table
func generateCSVOutput(result *dto.AllocationResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{AllocationFile, allocationRows(result.Allocations)},
		{UtilizationFile, utilizationRows(result.Utilization)},
		{RawAllocationFile, allocationRows(result.RawAllocations)},
		{GapsFile, gapRows(result.Gaps)},
		{RateGapsFile, rateGapRows(result.RateGaps)},
	}
	for _, f := range files {
		path := filepath.Join(config.OutputDir, f.name)
		if err := writeCSV(path, f.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		if config.Verbose {
			fmt.Fprintf(config.stdout(), "💾 %s\n", path)
		}
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func allocationRows(allocations []entities.Allocation) [][]string {
	rows := [][]string{{"period", "category", "line", "product", "hours", "mass_kg"}}
	for _, a := range allocations {
		rows = append(rows, []string{
			string(a.Period), string(a.Category), string(a.Line), string(a.Product),
			strconv.FormatFloat(a.Hours, 'f', -1, 64),
			strconv.FormatFloat(a.Mass, 'f', -1, 64),
		})
	}
	return rows
}

func utilizationRows(ratios []entities.UtilizationRatio) [][]string {
	rows := [][]string{{"period", "category", "line", "capacity_hours", "realized_hours", "capacity_demand_ratio", "band"}}
	for _, u := range ratios {
		ratio := ""
		if u.Defined() {
			ratio = strconv.FormatFloat(u.Ratio, 'f', -1, 64)
		}
		rows = append(rows, []string{
			string(u.Period), string(u.Category), string(u.Line),
			strconv.FormatFloat(u.Capacity, 'f', -1, 64),
			strconv.FormatFloat(u.RealizedHours, 'f', -1, 64),
			ratio,
			u.Band().String(),
		})
	}
	return rows
}

func gapRows(gaps []entities.RedistributionGap) [][]string {
	rows := [][]string{{"period", "category", "product", "mass_kg", "eligible_lines"}}
	for _, g := range gaps {
		rows = append(rows, []string{
			string(g.Period), string(g.Category), string(g.Product),
			strconv.FormatFloat(g.Mass, 'f', -1, 64),
			strconv.Itoa(g.EligibleLines),
		})
	}
	return rows
}

func rateGapRows(gaps []entities.RateGap) [][]string {
	rows := [][]string{{"period", "category", "line", "product", "record_category", "mass_kg"}}
	for _, g := range gaps {
		rows = append(rows, []string{
			string(g.Period), string(g.Category), string(g.Line), string(g.Product),
			string(g.RecordCategory),
			strconv.FormatFloat(g.Mass, 'f', -1, 64),
		})
	}
	return rows
}
