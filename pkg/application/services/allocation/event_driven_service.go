package allocation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vsinha/linealloc/pkg/application/dto"
	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/domain/lp"
	"github.com/vsinha/linealloc/pkg/infrastructure/events"
)

// EventDrivenService wraps Service and records every run in an event store,
// one stream per run ID
type EventDrivenService struct {
	service    *Service
	eventStore events.EventStore
	logger     *slog.Logger
}

func NewEventDrivenService(solver lp.Solver, eventStore events.EventStore) *EventDrivenService {
	return NewEventDrivenServiceWithConfig(solver, DefaultConfig(), eventStore)
}

func NewEventDrivenServiceWithConfig(
	solver lp.Solver,
	config Config,
	eventStore events.EventStore,
) *EventDrivenService {
	service := NewServiceWithConfig(solver, config)
	return &EventDrivenService{
		service:    service,
		eventStore: eventStore,
		logger:     service.logger,
	}
}

func (s *EventDrivenService) Solve(
	ctx context.Context,
	demand entities.DemandTable,
	capacity entities.CapacityTable,
	rates entities.RateTable,
) (*dto.AllocationResult, error) {
	runID := uuid.New()
	stream := runID.String()

	s.publish(events.NewSolveStartedEvent(stream, events.SolveStarted{
		DemandEntries:   len(demand),
		CapacityEntries: len(capacity),
		RateEntries:     len(rates),
		DemandMass:      demand.Total(),
		Policy:          string(s.service.Policy()),
	}))

	result, err := s.service.SolveRun(ctx, runID, demand, capacity, rates)
	if err != nil {
		s.publish(events.NewSolveFailedEvent(stream, err))
		return nil, err
	}

	s.publishResultEvents(stream, result)
	return result, nil
}

func (s *EventDrivenService) publishResultEvents(stream string, result *dto.AllocationResult) {
	for _, a := range result.RawAllocations {
		if a.Line.IsFallback() {
			s.publish(events.NewFallbackUsedEvent(stream, a))
		}
	}
	for _, g := range result.Gaps {
		s.publish(events.NewGapRecordedEvent(stream, g))
	}
	s.publish(events.NewSolveCompletedEvent(stream, events.SolveCompleted{
		Allocations:  len(result.Allocations),
		TotalHours:   result.Stats.TotalHours,
		FallbackMass: result.Stats.FallbackMass,
		GapMass:      result.Stats.GapMass,
		DurationMS:   result.Stats.SolveTime.Milliseconds(),
	}))
}

func (s *EventDrivenService) publish(event events.Event) {
	if err := s.eventStore.AppendEvent(event.StreamID(), event); err != nil {
		s.logger.Warn("failed to publish event", "type", event.Type(), "error", err)
	}
}
