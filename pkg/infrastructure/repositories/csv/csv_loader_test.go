package csv

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/infrastructure/repositories/memory"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func writeScenario(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, DemandFile, "period,category,product,demand_kg\nP1,Choc,A,100\nP1,Choc,B,40.5\n")
	writeFile(t, dir, CapacityFile, "period,category,line,available_hours\nP1,Choc,L1,10\nP1,Choc,L2,8\n")
	writeFile(t, dir, RatesFile, "period,category,line,product,kg_per_hour\nP1,Choc,L1,A,5\nP1,Choc,L2,A,4\nP1,Choc,L2,B,0\n")
	return dir
}

func TestLoader_LoadScenarioDir(t *testing.T) {
	dir := writeScenario(t)
	repo := memory.NewScenarioRepository()

	if err := NewLoader().LoadScenarioDir(repo, dir); err != nil {
		t.Fatalf("LoadScenarioDir failed: %v", err)
	}

	demand, _ := repo.GetDemand()
	if len(demand) != 2 {
		t.Fatalf("Expected 2 demand entries, got %d", len(demand))
	}
	if got := demand[entities.DemandKey{Period: "P1", Category: "Choc", Product: "B"}]; got != 40.5 {
		t.Errorf("Expected demand 40.5 for B, got %v", got)
	}

	capacity, _ := repo.GetCapacity()
	if got := capacity.HoursOf(entities.CapacityKey{Period: "P1", Category: "Choc", Line: "L2"}); got != 8 {
		t.Errorf("Expected 8 hours on L2, got %v", got)
	}

	rates, _ := repo.GetRates()
	if len(rates) != 3 {
		t.Fatalf("Expected 3 rate entries, got %d", len(rates))
	}
	if _, ok := rates.RateOf(entities.RateKey{Period: "P1", Category: "Choc", Line: "L2", Product: "B"}); ok {
		t.Error("Expected zero rate to read as incompatible")
	}
}

func TestLoader_HeaderTolerance(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "demand.csv", "\ufeffPeriod, Category ,PRODUCT,demand_kg\nP1,Choc,A,1\n")

	demand, err := NewLoader().LoadDemand(path)
	if err != nil {
		t.Fatalf("LoadDemand failed: %v", err)
	}
	if len(demand) != 1 {
		t.Errorf("Expected 1 demand entry, got %d", len(demand))
	}
}

func TestLoader_HeaderOnlyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "capacity.csv", "period,category,line,available_hours\n")

	capacity, err := NewLoader().LoadCapacity(path)
	if err != nil {
		t.Fatalf("LoadCapacity failed: %v", err)
	}
	if len(capacity) != 0 {
		t.Errorf("Expected empty capacity table, got %d entries", len(capacity))
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		load    func(l *Loader, path string) error
		wantErr string
	}{
		{
			name:    "header mismatch",
			file:    "demand.csv",
			content: "period,category,item,demand_kg\nP1,Choc,A,1\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadDemand(p); return err },
			wantErr: "header mismatch",
		},
		{
			name:    "column count",
			file:    "capacity.csv",
			content: "period,category,line,available_hours\nP1,Choc,L1\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadCapacity(p); return err },
			wantErr: "row 2: expected 4 columns, got 3",
		},
		{
			name:    "not a number",
			file:    "rates.csv",
			content: "period,category,line,product,kg_per_hour\nP1,Choc,L1,A,fast\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadRates(p); return err },
			wantErr: `row 2: invalid kg_per_hour "fast"`,
		},
		{
			name:    "negative demand",
			file:    "demand.csv",
			content: "period,category,product,demand_kg\nP1,Choc,A,1\nP1,Choc,B,-3\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadDemand(p); return err },
			wantErr: "row 3: demand quantity cannot be negative",
		},
		{
			name:    "NaN capacity",
			file:    "capacity.csv",
			content: "period,category,line,available_hours\nP1,Choc,L1,NaN\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadCapacity(p); return err },
			wantErr: "must be finite",
		},
		{
			name:    "reserved line",
			file:    "rates.csv",
			content: "period,category,line,product,kg_per_hour\nP1,Choc,Fallback_Line,A,1\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadRates(p); return err },
			wantErr: "reserved",
		},
		{
			name:    "duplicate key",
			file:    "demand.csv",
			content: "period,category,product,demand_kg\nP1,Choc,A,1\nP1,Choc,A,2\n",
			load:    func(l *Loader, p string) error { _, err := l.LoadDemand(p); return err },
			wantErr: "row 3: duplicate demand for P1/Choc/A",
		},
		{
			name:    "empty file",
			file:    "demand.csv",
			content: "",
			load:    func(l *Loader, p string) error { _, err := l.LoadDemand(p); return err },
			wantErr: "must have a header row",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			err := tt.load(NewLoader(), path)
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	repo := memory.NewScenarioRepository()
	err := NewLoader().LoadScenarioDir(repo, t.TempDir())
	if err == nil {
		t.Fatal("Expected error for missing files")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
