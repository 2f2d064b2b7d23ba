package services

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

func validScenario() (entities.DemandTable, entities.CapacityTable, entities.RateTable) {
	demand := entities.DemandTable{
		{Period: "P1", Category: "Choc", Product: "A"}: 100,
	}
	capacity := entities.CapacityTable{
		{Period: "P1", Category: "Choc", Line: "L1"}: 10,
	}
	rates := entities.RateTable{
		{Period: "P1", Category: "Choc", Line: "L1", Product: "A"}: 5,
	}
	return demand, capacity, rates
}

func TestScenarioValidator_Valid(t *testing.T) {
	demand, capacity, rates := validScenario()

	result := NewScenarioValidator().ValidateScenario(demand, capacity, rates)
	if !result.Valid() {
		t.Fatalf("Expected valid scenario, got errors: %v", result.Errors)
	}
	if result.Err() != nil {
		t.Errorf("Expected nil error, got %v", result.Err())
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", result.Warnings)
	}
}

func TestScenarioValidator_RejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(entities.DemandTable, entities.CapacityTable, entities.RateTable)
		message string
	}{
		{
			name: "negative demand",
			mutate: func(d entities.DemandTable, _ entities.CapacityTable, _ entities.RateTable) {
				d[entities.DemandKey{Period: "P1", Category: "Choc", Product: "A"}] = -1
			},
			message: "demand P1/Choc/A: negative value -1",
		},
		{
			name: "nan capacity",
			mutate: func(_ entities.DemandTable, c entities.CapacityTable, _ entities.RateTable) {
				c[entities.CapacityKey{Period: "P1", Category: "Choc", Line: "L1"}] = math.NaN()
			},
			message: "capacity P1/Choc/L1: value is NaN",
		},
		{
			name: "infinite capacity",
			mutate: func(_ entities.DemandTable, c entities.CapacityTable, _ entities.RateTable) {
				c[entities.CapacityKey{Period: "P1", Category: "Choc", Line: "L1"}] = math.Inf(1)
			},
			message: "capacity P1/Choc/L1: value is +Inf",
		},
		{
			name: "negative rate",
			mutate: func(_ entities.DemandTable, _ entities.CapacityTable, r entities.RateTable) {
				r[entities.RateKey{Period: "P1", Category: "Choc", Line: "L1", Product: "A"}] = -2
			},
			message: "rate P1/Choc/L1/A: negative value -2",
		},
		{
			name: "reserved line",
			mutate: func(_ entities.DemandTable, c entities.CapacityTable, _ entities.RateTable) {
				c[entities.CapacityKey{Period: "P1", Category: "Choc", Line: entities.FallbackLine}] = 1
			},
			message: "capacity P1/Choc/Fallback_Line: line name is reserved",
		},
		{
			name: "empty product",
			mutate: func(d entities.DemandTable, _ entities.CapacityTable, _ entities.RateTable) {
				d[entities.DemandKey{Period: "P1", Category: "Choc"}] = 1
			},
			message: "demand P1/Choc/: empty identifier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			demand, capacity, rates := validScenario()
			tt.mutate(demand, capacity, rates)

			result := NewScenarioValidator().ValidateScenario(demand, capacity, rates)
			err := result.Err()
			if !errors.Is(err, ErrMalformedInput) {
				t.Fatalf("Expected ErrMalformedInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("Expected error to contain %q, got %q", tt.message, err.Error())
			}
		})
	}
}

func TestScenarioValidator_WarnsOnUncoveredDemand(t *testing.T) {
	demand, capacity, rates := validScenario()
	demand[entities.DemandKey{Period: "P1", Category: "Choc", Product: "B"}] = 20
	rates[entities.RateKey{Period: "P1", Category: "Choc", Line: "L1", Product: "C"}] = 0

	result := NewScenarioValidator().ValidateScenario(demand, capacity, rates)
	if !result.Valid() {
		t.Fatalf("Expected uncovered demand to be a warning only, got %v", result.Errors)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("Expected 1 warning, got %d: %v", len(result.Warnings), result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "P1/Choc/B") {
		t.Errorf("Expected warning for P1/Choc/B, got %s", result.Warnings[0])
	}
}
