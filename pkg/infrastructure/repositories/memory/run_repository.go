package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/vsinha/linealloc/pkg/domain/entities"
	"github.com/vsinha/linealloc/pkg/domain/repositories"
)

// RunRepository provides in-memory storage for saved runs
type RunRepository struct {
	runs  map[uuid.UUID]*entities.Run
	mutex sync.RWMutex
}

// NewRunRepository creates a new in-memory run repository
func NewRunRepository() *RunRepository {
	return &RunRepository{
		runs: make(map[uuid.UUID]*entities.Run),
	}
}

// Verify interface compliance
var _ repositories.RunRepository = (*RunRepository)(nil)

// SaveRun stores a copy of the run under its ID
func (r *RunRepository) SaveRun(ctx context.Context, run *entities.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if run.ID == uuid.Nil {
		return fmt.Errorf("run %q has no ID", run.Name)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.runs[run.ID] = cloneRun(run)
	return nil
}

// GetRun returns a copy of the run with the given ID
func (r *RunRepository) GetRun(ctx context.Context, id uuid.UUID) (*entities.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()
	run, exists := r.runs[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, id)
	}
	return cloneRun(run), nil
}

// ListRuns returns run summaries, newest first
func (r *RunRepository) ListRuns(ctx context.Context) ([]entities.RunSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.RLock()
	summaries := make([]entities.RunSummary, 0, len(r.runs))
	for _, run := range r.runs {
		summaries = append(summaries, run.Summary())
	}
	r.mutex.RUnlock()

	slices.SortFunc(summaries, entities.CompareRunSummaries)
	return summaries, nil
}

func cloneRun(run *entities.Run) *entities.Run {
	cp := *run
	cp.Allocations = slices.Clone(run.Allocations)
	cp.Utilization = slices.Clone(run.Utilization)
	cp.RawAllocations = slices.Clone(run.RawAllocations)
	cp.Gaps = slices.Clone(run.Gaps)
	cp.Inputs = run.Inputs.Clone()
	return &cp
}
