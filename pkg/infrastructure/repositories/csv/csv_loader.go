package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/domain/repositories"
)

// File names looked up by LoadScenarioDir
const (
	DemandFile   = "demand.csv"
	CapacityFile = "capacity.csv"
	RatesFile    = "rates.csv"
)

var (
	demandHeader   = []string{"period", "category", "product", "demand_kg"}
	capacityHeader = []string{"period", "category", "line", "available_hours"}
	ratesHeader    = []string{"period", "category", "line", "product", "kg_per_hour"}
)

// Loader handles loading scenario tables from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadDemand loads the demand table from a CSV file
func (l *Loader) LoadDemand(filename string) (entities.DemandTable, error) {
	records, err := readTable(filename, "demand", demandHeader)
	if err != nil {
		return nil, err
	}

	table := make(entities.DemandTable, len(records))
	for i, record := range records {
		qty, err := parseFloat("demand_kg", record[3])
		if err != nil {
			return nil, fmt.Errorf("demand CSV row %d: %w", i+2, err)
		}
		entry, err := entities.NewDemandEntry(
			entities.Period(record[0]),
			entities.Category(record[1]),
			entities.Product(record[2]),
			qty,
		)
		if err != nil {
			return nil, fmt.Errorf("demand CSV row %d: %w", i+2, err)
		}
		if err := table.Add(entry); err != nil {
			return nil, fmt.Errorf("demand CSV row %d: %w", i+2, err)
		}
	}
	return table, nil
}

// LoadCapacity loads the capacity table from a CSV file
func (l *Loader) LoadCapacity(filename string) (entities.CapacityTable, error) {
	records, err := readTable(filename, "capacity", capacityHeader)
	if err != nil {
		return nil, err
	}

	table := make(entities.CapacityTable, len(records))
	for i, record := range records {
		hours, err := parseFloat("available_hours", record[3])
		if err != nil {
			return nil, fmt.Errorf("capacity CSV row %d: %w", i+2, err)
		}
		entry, err := entities.NewCapacityEntry(
			entities.Period(record[0]),
			entities.Category(record[1]),
			entities.Line(record[2]),
			hours,
		)
		if err != nil {
			return nil, fmt.Errorf("capacity CSV row %d: %w", i+2, err)
		}
		if err := table.Add(entry); err != nil {
			return nil, fmt.Errorf("capacity CSV row %d: %w", i+2, err)
		}
	}
	return table, nil
}

// LoadRates loads the production rate table from a CSV file
func (l *Loader) LoadRates(filename string) (entities.RateTable, error) {
	records, err := readTable(filename, "rates", ratesHeader)
	if err != nil {
		return nil, err
	}

	table := make(entities.RateTable, len(records))
	for i, record := range records {
		rate, err := parseFloat("kg_per_hour", record[4])
		if err != nil {
			return nil, fmt.Errorf("rates CSV row %d: %w", i+2, err)
		}
		entry, err := entities.NewRateEntry(
			entities.Period(record[0]),
			entities.Category(record[1]),
			entities.Line(record[2]),
			entities.Product(record[3]),
			rate,
		)
		if err != nil {
			return nil, fmt.Errorf("rates CSV row %d: %w", i+2, err)
		}
		if err := table.Add(entry); err != nil {
			return nil, fmt.Errorf("rates CSV row %d: %w", i+2, err)
		}
	}
	return table, nil
}

// LoadScenario loads the three tables into the repository
func (l *Loader) LoadScenario(
	repo repositories.ScenarioRepository,
	demandFile, capacityFile, ratesFile string,
) error {
	demand, err := l.LoadDemand(demandFile)
	if err != nil {
		return err
	}
	capacity, err := l.LoadCapacity(capacityFile)
	if err != nil {
		return err
	}
	rates, err := l.LoadRates(ratesFile)
	if err != nil {
		return err
	}
	return repo.LoadScenario(demand, capacity, rates)
}

// LoadScenarioDir loads demand.csv, capacity.csv and rates.csv from dir
func (l *Loader) LoadScenarioDir(repo repositories.ScenarioRepository, dir string) error {
	return l.LoadScenario(
		repo,
		filepath.Join(dir, DemandFile),
		filepath.Join(dir, CapacityFile),
		filepath.Join(dir, RatesFile),
	)
}

// readTable returns the data rows of a CSV file after checking its header
func readTable(filename, name string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expectedHeader), len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}
	}
	return rows, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		name := strings.TrimPrefix(actual[i], "\ufeff")
		if strings.ToLower(strings.TrimSpace(name)) != col {
			return false
		}
	}

	return true
}

func parseFloat(column, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", column, s)
	}
	return v, nil
}
