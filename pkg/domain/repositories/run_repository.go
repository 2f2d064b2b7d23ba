package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vsinha/linealloc/pkg/domain/entities"
)

// ErrRunNotFound is returned when no run has the requested ID
var ErrRunNotFound = errors.New("run not found")

// RunRepository stores saved allocation runs
type RunRepository interface {
	SaveRun(ctx context.Context, run *entities.Run) error
	GetRun(ctx context.Context, id uuid.UUID) (*entities.Run, error)
	// ListRuns returns summaries ordered by creation time, newest first
	ListRuns(ctx context.Context) ([]entities.RunSummary, error)
}
