package events

import (
	"github.com/vsinha/linealloc/pkg/domain/entities"
)

const (
	SolveStartedEvent   = "allocation.solve.started"
	FallbackUsedEvent   = "allocation.fallback.used"
	GapRecordedEvent    = "allocation.gap.recorded"
	SolveCompletedEvent = "allocation.solve.completed"
	SolveFailedEvent    = "allocation.solve.failed"
)

type SolveStarted struct {
	DemandEntries   int     `json:"demand_entries"`
	CapacityEntries int     `json:"capacity_entries"`
	RateEntries     int     `json:"rate_entries"`
	DemandMass      float64 `json:"demand_mass_kg"`
	Policy          string  `json:"policy"`
}

type FallbackUsed struct {
	Allocation entities.Allocation `json:"allocation"`
}

type GapRecorded struct {
	Gap entities.RedistributionGap `json:"gap"`
}

type SolveCompleted struct {
	Allocations  int     `json:"allocations"`
	TotalHours   float64 `json:"total_hours"`
	FallbackMass float64 `json:"fallback_mass_kg"`
	GapMass      float64 `json:"gap_mass_kg"`
	DurationMS   int64   `json:"duration_ms"`
}

type SolveFailed struct {
	Reason string `json:"reason"`
}

func NewSolveStartedEvent(runID string, data SolveStarted) Event {
	return NewEvent(SolveStartedEvent, runID, data)
}

func NewFallbackUsedEvent(runID string, allocation entities.Allocation) Event {
	return NewEvent(FallbackUsedEvent, runID, FallbackUsed{Allocation: allocation})
}

func NewGapRecordedEvent(runID string, gap entities.RedistributionGap) Event {
	return NewEvent(GapRecordedEvent, runID, GapRecorded{Gap: gap})
}

func NewSolveCompletedEvent(runID string, data SolveCompleted) Event {
	return NewEvent(SolveCompletedEvent, runID, data)
}

func NewSolveFailedEvent(runID string, err error) Event {
	return NewEvent(SolveFailedEvent, runID, SolveFailed{Reason: err.Error()})
}
