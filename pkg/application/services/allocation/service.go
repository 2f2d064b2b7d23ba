package allocation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vsinha/linealloc/pkg/application/dto"
	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/domain/lp"
	"github.com/vsinha/linealloc/pkg/domain/services"
)

// ErrSolverFailure wraps any error reported by the LP solver
var ErrSolverFailure = errors.New("solver failure")

// Solve outcome labels passed to the metrics recorder
const (
	StatusOK       = "ok"
	StatusFallback = "fallback"
	StatusInvalid  = "invalid"
	StatusFailed   = "failed"
)

// MetricsRecorder receives one observation per Solve call
type MetricsRecorder interface {
	ObserveSolve(status string, elapsed time.Duration, fallbackMass, gapMass float64)
}

// Config holds tuning for the allocation pipeline
type Config struct {
	// FallbackRate is the fallback line's output per hour
	FallbackRate float64
	// ExtractionTolerance drops solved hours at or below this value
	ExtractionTolerance float64
	Policy              Policy

	Logger  *slog.Logger
	Metrics MetricsRecorder // optional
}

// DefaultConfig returns the standard pipeline configuration
func DefaultConfig() Config {
	return Config{
		FallbackRate:        DefaultFallbackRate,
		ExtractionTolerance: DefaultExtractionTolerance,
		Policy:              PolicyCapacityBounded,
	}
}

// Service runs the allocation pipeline: validate, index, augment, build the
// model, solve, extract, redistribute fallback output, report utilization
type Service struct {
	solver    lp.Solver
	validator *services.ScenarioValidator
	config    Config
	logger    *slog.Logger
}

// NewService creates a new allocation service with default configuration
func NewService(solver lp.Solver) *Service {
	return NewServiceWithConfig(solver, DefaultConfig())
}

// NewServiceWithConfig creates a new allocation service with custom configuration
func NewServiceWithConfig(solver lp.Solver, config Config) *Service {
	defaults := DefaultConfig()
	if config.FallbackRate <= 0 {
		config.FallbackRate = defaults.FallbackRate
	}
	if config.ExtractionTolerance <= 0 {
		config.ExtractionTolerance = defaults.ExtractionTolerance
	}
	if config.Policy == "" {
		config.Policy = defaults.Policy
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		solver:    solver,
		validator: services.NewScenarioValidator(),
		config:    config,
		logger:    logger,
	}
}

// Policy returns the redistribution policy in use
func (s *Service) Policy() Policy {
	return s.config.Policy
}

// Solve computes the allocation for the given tables. The caller's tables are
// never modified. Malformed input fails with services.ErrMalformedInput and
// any solver error is wrapped in ErrSolverFailure.
func (s *Service) Solve(
	ctx context.Context,
	demand entities.DemandTable,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) (*dto.AllocationResult, error) {
	return s.SolveRun(ctx, uuid.New(), demand, capacity, rates)
}

// SolveRun is Solve with a caller-chosen run ID
func (s *Service) SolveRun(
	ctx context.Context,
	runID uuid.UUID,
	demand entities.DemandTable,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) (*dto.AllocationResult, error) {
	start := time.Now()

	validation := s.validator.ValidateScenario(demand, capacity, rates)
	if err := validation.Err(); err != nil {
		s.observe(StatusInvalid, start, 0, 0)
		return nil, err
	}
	for _, w := range validation.Warnings {
		s.logger.Warn("uncovered demand", "detail", w)
	}

	index := BuildIndex(demand, capacity)
	augmented := Augment(index, demand, capacity, rates, s.config.FallbackRate)
	formulation := BuildModel(augmented.Index, demand, augmented.Capacity, augmented.Rates)
	s.logger.Debug("model built",
		"periods", len(index.Periods),
		"categories", len(index.Categories),
		"products", len(index.Products),
		"lines", len(index.Lines),
		"variables", len(formulation.Model.Variables),
		"live", formulation.Live,
		"constraints", len(formulation.Model.Constraints))

	assignment, err := s.solver.Solve(ctx, formulation.Model)
	if err != nil {
		s.observe(StatusFailed, start, 0, 0)
		return nil, fmt.Errorf("%w: %w", ErrSolverFailure, err)
	}
	if len(assignment) != len(formulation.Keys) {
		s.observe(StatusFailed, start, 0, 0)
		return nil, fmt.Errorf("%w: got %d values for %d variables",
			ErrSolverFailure, len(assignment), len(formulation.Keys))
	}

	raw := Extract(formulation, assignment, augmented.Rates, s.config.ExtractionTolerance)

	redistributor := NewRedistributorWithTolerance(s.config.Policy, augmented.Index.Lines, s.config.ExtractionTolerance)
	redistribution := redistributor.Redistribute(raw, augmented.Capacity, augmented.Rates)

	utilization, rateGaps := Utilization(redistribution.Allocations, augmented.Capacity, augmented.Rates)

	result := &dto.AllocationResult{
		RunID:          runID,
		Allocations:    redistribution.Allocations,
		Utilization:    utilization,
		RawAllocations: raw,
		Transfers:      redistribution.Transfers,
		Gaps:           redistribution.Gaps,
		RateGaps:       rateGaps,
		Warnings:       validation.Warnings,
	}
	result.Stats = s.statistics(index, formulation, demand, result)
	result.Stats.SolveTime = time.Since(start)

	if result.FallbackUsed() {
		s.logger.Warn("fallback line used",
			"mass_kg", result.Stats.FallbackMass,
			"transfers", len(result.Transfers))
	}
	for _, g := range result.Gaps {
		s.logger.Warn("unmet demand",
			"period", g.Period,
			"category", g.Category,
			"product", g.Product,
			"mass_kg", g.Mass,
			"eligible_lines", g.EligibleLines)
	}
	for _, u := range utilization {
		if u.Capacity == 0 && u.RealizedHours > 0 {
			s.logger.Warn("hours realized on a line without capacity",
				"period", u.Period,
				"category", u.Category,
				"line", u.Line,
				"realized_hours", u.RealizedHours)
		}
	}
	for _, g := range rateGaps {
		s.logger.Debug("rate missing for utilization",
			"period", g.Period,
			"category", g.Category,
			"line", g.Line,
			"product", g.Product)
	}

	status := StatusOK
	if result.FallbackUsed() {
		status = StatusFallback
	}
	s.observe(status, start, result.Stats.FallbackMass, result.Stats.GapMass)

	return result, nil
}

func (s *Service) statistics(
	index Index,
	f *Formulation,
	demand entities.DemandTable,
	result *dto.AllocationResult,
) dto.Statistics {
	stats := dto.Statistics{
		Policy:      string(s.config.Policy),
		Periods:     len(index.Periods),
		Categories:  len(index.Categories),
		Products:    len(index.Products),
		Lines:       len(index.RealLines()),
		Variables:   len(f.Model.Variables),
		Constraints: len(f.Model.Constraints),
		DemandMass:  demand.Total(),
	}
	for _, a := range result.Allocations {
		stats.TotalHours += a.Hours
		stats.TotalMass += a.Mass
	}
	for _, a := range result.RawAllocations {
		if a.Line.IsFallback() {
			stats.FallbackMass += a.Mass
		}
	}
	for _, g := range result.Gaps {
		stats.GapMass += g.Mass
	}
	return stats
}

func (s *Service) observe(status string, start time.Time, fallbackMass, gapMass float64) {
	if s.config.Metrics == nil {
		return
	}
	s.config.Metrics.ObserveSolve(status, time.Since(start), fallbackMass, gapMass)
}
