package services

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

// ErrMalformedInput is returned when demand, capacity or rate data cannot be
// turned into a well-formed allocation model
var ErrMalformedInput = errors.New("malformed input")

// ScenarioValidator checks the raw tables before a model is built
type ScenarioValidator struct{}

// NewScenarioValidator creates a new scenario validator
func NewScenarioValidator() *ScenarioValidator {
	return &ScenarioValidator{}
}

// ValidationResult contains the results of scenario validation
type ValidationResult struct {
	Errors []string
	// Warnings do not block solving
	Warnings []string
}

// Valid reports whether no errors were found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns nil for a valid result, otherwise an error wrapping
// ErrMalformedInput that lists every problem
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMalformedInput, strings.Join(r.Errors, "; "))
}

// ValidateScenario collects every malformed entry across the three tables
func (v *ScenarioValidator) ValidateScenario(
	demand entities.DemandTable,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) *ValidationResult {
	result := &ValidationResult{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	for _, key := range demand.Keys() {
		label := fmt.Sprintf("demand %s/%s/%s", key.Period, key.Category, key.Product)
		if key.Period == "" || key.Category == "" || key.Product == "" {
			result.Errors = append(result.Errors, label+": empty identifier")
		}
		if msg := checkAmount(demand[key]); msg != "" {
			result.Errors = append(result.Errors, label+": "+msg)
		}
	}

	for _, key := range capacity.Keys() {
		label := fmt.Sprintf("capacity %s/%s/%s", key.Period, key.Category, key.Line)
		if key.Period == "" || key.Category == "" || key.Line == "" {
			result.Errors = append(result.Errors, label+": empty identifier")
		}
		if key.Line.IsFallback() {
			result.Errors = append(result.Errors, label+": line name is reserved")
		}
		if msg := checkAmount(capacity[key]); msg != "" {
			result.Errors = append(result.Errors, label+": "+msg)
		}
	}

	for _, key := range rates.Keys() {
		label := fmt.Sprintf("rate %s/%s/%s/%s", key.Period, key.Category, key.Line, key.Product)
		if key.Period == "" || key.Category == "" || key.Line == "" || key.Product == "" {
			result.Errors = append(result.Errors, label+": empty identifier")
		}
		if key.Line.IsFallback() {
			result.Errors = append(result.Errors, label+": line name is reserved")
		}
		if msg := checkAmount(rates[key]); msg != "" {
			result.Errors = append(result.Errors, label+": "+msg)
		}
	}

	result.Warnings = append(result.Warnings, v.findUncoveredDemand(demand, capacity, rates)...)

	return result
}

// findUncoveredDemand lists demand that no real line can produce. Such demand
// is still solved (through the fallback line) and reported as a gap.
func (v *ScenarioValidator) findUncoveredDemand(
	demand entities.DemandTable,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) []string {
	producible := make(map[entities.DemandKey]bool)
	for key := range rates {
		if _, ok := rates.RateOf(key); !ok {
			continue
		}
		if _, ok := capacity[key.Capacity()]; ok {
			producible[key.Demand()] = true
		}
	}

	var warnings []string
	for _, key := range demand.Keys() {
		if demand[key] > 0 && !producible[key] {
			warnings = append(warnings,
				fmt.Sprintf("demand %s/%s/%s has no line with capacity and a positive rate", key.Period, key.Category, key.Product))
		}
	}
	return warnings
}

func checkAmount(value float64) string {
	switch {
	case math.IsNaN(value):
		return "value is NaN"
	case math.IsInf(value, 0):
		return fmt.Sprintf("value is %v", value)
	case value < 0:
		return fmt.Sprintf("negative value %v", value)
	default:
		return ""
	}
}
