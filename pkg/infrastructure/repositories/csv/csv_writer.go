package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

// WriteScenarioDir writes the tables as demand.csv, capacity.csv and
// rates.csv in dir, in the layout LoadScenarioDir reads back
func WriteScenarioDir(dir string, demand entities.DemandTable, capacity entities.CapacityTable, rates entities.RateTable) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}

	demandRows := [][]string{demandHeader}
	for _, k := range demand.Keys() {
		demandRows = append(demandRows, []string{
			string(k.Period), string(k.Category), string(k.Product), formatFloat(demand[k]),
		})
	}
	capacityRows := [][]string{capacityHeader}
	for _, k := range capacity.Keys() {
		capacityRows = append(capacityRows, []string{
			string(k.Period), string(k.Category), string(k.Line), formatFloat(capacity[k]),
		})
	}
	rateRows := [][]string{ratesHeader}
	for _, k := range rates.Keys() {
		rateRows = append(rateRows, []string{
			string(k.Period), string(k.Category), string(k.Line), string(k.Product), formatFloat(rates[k]),
		})
	}

	files := []struct {
		name string
		rows [][]string
	}{
		{DemandFile, demandRows},
		{CapacityFile, capacityRows},
		{RatesFile, rateRows},
	}
	for _, f := range files {
		if err := writeTable(filepath.Join(dir, f.name), f.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.name, err)
		}
	}
	return nil
}

func writeTable(path string, rows [][]string) error {
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
