package store

import (
	"context"
	"errors"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

// ErrNotFound is returned when no run is stored under the requested key.
var ErrNotFound = errors.New("analysis run not found")

// ResultStore keeps completed analysis runs.
type ResultStore interface {
	SaveRun(ctx context.Context, run models.AnalysisRun) error
	LatestRun(ctx context.Context) (models.AnalysisRun, error)
	GetRun(ctx context.Context, id string) (models.AnalysisRun, error)
}
