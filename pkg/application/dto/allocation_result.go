package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

// AllocationResult contains the complete output of an allocation run
type AllocationResult struct {
	RunID uuid.UUID `json:"run_id"`
	// Allocations is the final table: fallback-free, aggregated per key
	Allocations []entities.Allocation `json:"allocations"`
	// Utilization has one row per real (period, category, line) with capacity
	Utilization []entities.UtilizationRatio `json:"utilization"`
	// RawAllocations is the solved table before redistribution, fallback rows included
	RawAllocations []entities.Allocation `json:"raw_allocations"`
	// Transfers are the shares moved from the fallback line onto real lines
	Transfers []entities.Allocation        `json:"transfers"`
	Gaps      []entities.RedistributionGap `json:"gaps"`
	RateGaps  []entities.RateGap           `json:"rate_gaps"`
	Warnings  []string                     `json:"warnings"`
	Stats     Statistics                   `json:"stats"`
}

// Statistics summarizes an allocation run
type Statistics struct {
	Policy       string        `json:"policy"`
	Periods      int           `json:"periods"`
	Categories   int           `json:"categories"`
	Products     int           `json:"products"`
	Lines        int           `json:"lines"`
	Variables    int           `json:"variables"`
	Constraints  int           `json:"constraints"`
	DemandMass   float64       `json:"demand_mass_kg"`
	TotalHours   float64       `json:"total_hours"`
	TotalMass    float64       `json:"total_mass_kg"`
	FallbackMass float64       `json:"fallback_mass_kg"`
	GapMass      float64       `json:"gap_mass_kg"`
	SolveTime    time.Duration `json:"solve_time_ns"`
}

// FallbackUsed reports whether any demand was covered by the fallback line
func (r *AllocationResult) FallbackUsed() bool {
	return r.Stats.FallbackMass > 0
}

// ToRun converts the result into a run ready to be saved under the given name
func (r *AllocationResult) ToRun(name string, createdAt time.Time) (*entities.Run, error) {
	run, err := entities.NewRun(name, r.Stats.Policy, createdAt)
	if err != nil {
		return nil, err
	}
	if r.RunID != uuid.Nil {
		run.ID = r.RunID
	}
	run.Allocations = r.Allocations
	run.Utilization = r.Utilization
	run.RawAllocations = r.RawAllocations
	run.Gaps = r.Gaps
	return run, nil
}

// FromRun rebuilds a result from a saved run for reporting. Transfers, rate
// gaps, warnings and model sizes are not saved and stay empty.
func FromRun(run *entities.Run) *AllocationResult {
	result := &AllocationResult{
		RunID:          run.ID,
		Allocations:    run.Allocations,
		Utilization:    run.Utilization,
		RawAllocations: run.RawAllocations,
		Gaps:           run.Gaps,
		Stats: Statistics{
			Policy:     run.Policy,
			DemandMass: run.Inputs.Demand.Total(),
			GapMass:    run.GapMass(),
		},
	}
	for _, a := range run.Allocations {
		result.Stats.TotalHours += a.Hours
		result.Stats.TotalMass += a.Mass
	}
	for _, a := range run.RawAllocations {
		if a.Line.IsFallback() {
			result.Stats.FallbackMass += a.Mass
		}
	}
	return result
}
