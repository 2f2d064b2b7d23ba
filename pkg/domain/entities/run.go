package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Run is a saved allocation result, identified by a generated ID.
// Saving the same name twice produces two independent runs.
type Run struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	CreatedAt      time.Time           `json:"created_at"`
	Policy         string              `json:"policy"`
	Allocations    []Allocation        `json:"allocations"`
	Utilization    []UtilizationRatio  `json:"utilization"`
	RawAllocations []Allocation        `json:"raw_allocations"`
	Gaps           []RedistributionGap `json:"gaps"`
	// Inputs are the tables the run was solved from
	Inputs RunInputs `json:"-"`
}

// RunInputs holds the demand, capacity and rate tables of a run
type RunInputs struct {
	Demand   DemandTable
	Capacity CapacityTable
	Rates    RateTable
}

// NewRunInputs copies the tables so later edits do not leak into a saved run
func NewRunInputs(demand DemandTable, capacity CapacityTable, rates RateTable) RunInputs {
	return RunInputs{
		Demand:   demand.Clone(),
		Capacity: capacity.Clone(),
		Rates:    rates.Clone(),
	}
}

// Clone returns an independent copy of the inputs
func (in RunInputs) Clone() RunInputs {
	return NewRunInputs(in.Demand, in.Capacity, in.Rates)
}

// Empty reports whether no input table was recorded
func (in RunInputs) Empty() bool {
	return len(in.Demand) == 0 && len(in.Capacity) == 0 && len(in.Rates) == 0
}

// NewRun creates a validated Run with a fresh ID
func NewRun(name, policy string, createdAt time.Time) (*Run, error) {
	if name == "" {
		return nil, fmt.Errorf("run name cannot be empty")
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &Run{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: createdAt.UTC(),
		Policy:    policy,
	}, nil
}

// GapMass returns the total unmet mass recorded on the run
func (r *Run) GapMass() float64 {
	var total float64
	for _, g := range r.Gaps {
		total += g.Mass
	}
	return total
}

// RunSummary is the listing view of a saved run
type RunSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
	Policy      string    `json:"policy"`
	Allocations int       `json:"allocations"`
	GapMass     float64   `json:"gap_mass_kg"`
}

// Summary returns the listing view of the run
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:          r.ID,
		Name:        r.Name,
		CreatedAt:   r.CreatedAt,
		Policy:      r.Policy,
		Allocations: len(r.Allocations),
		GapMass:     r.GapMass(),
	}
}

// CompareRunSummaries orders summaries newest first, then by name and ID
func CompareRunSummaries(a, b RunSummary) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}
