package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

// LocationStore is the collaborator that owns location state.
type LocationStore interface {
	ListLocations(ctx context.Context) ([]models.Location, error)
	AddLocation(ctx context.Context, name, coordinates string) (models.Location, error)
	SetLocationActive(ctx context.Context, id string, active bool) (models.Location, error)
}

// LocationRegistry validates location input, forwards it to the store and
// keeps the latest fetched snapshot. It holds no state of its own beyond that.
type LocationRegistry struct {
	store     LocationStore
	fallback  *FallbackProvider
	reporter  *fallbackReporter
	validate  *validator.Validate
	logger    *zap.Logger
	mu        sync.RWMutex
	snapshot  []models.Location
	fromStore bool
	mutations uint64 // local Add/SetActive count
}

type newLocation struct {
	Name        string `validate:"required"`
	Coordinates string `validate:"required,coordinates"`
}

func NewLocationRegistry(store LocationStore, fallback *FallbackProvider, logger *zap.Logger, observer FallbackObserver) *LocationRegistry {
	return &LocationRegistry{
		store:    store,
		fallback: fallback,
		reporter: newFallbackReporter(logger, observer),
		validate: NewValidator(),
		logger:   logger,
	}
}

// List fetches the current locations in store order. When the store fails the
// reference locations are returned instead; List itself never fails. A list
// that overlapped a local Add or SetActive does not replace the snapshot,
// since it may predate that change.
func (r *LocationRegistry) List(ctx context.Context) []models.Location {
	r.mu.RLock()
	mutations := r.mutations
	r.mu.RUnlock()

	locations, err := r.store.ListLocations(ctx)
	fromStore := true
	if err != nil {
		r.reporter.report("list locations", err)
		locations = r.fallback.Locations()
		fromStore = false
	}
	if locations == nil {
		locations = []models.Location{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mutations != mutations {
		r.logger.Debug("Keeping location snapshot changed during list")
		return append([]models.Location(nil), r.snapshot...)
	}
	r.snapshot = locations
	r.fromStore = fromStore

	return append([]models.Location(nil), locations...)
}

// Snapshot returns the locations from the most recent List, Add or SetActive.
func (r *LocationRegistry) Snapshot() []models.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Location(nil), r.snapshot...)
}

// Active returns the active locations of the current snapshot.
func (r *LocationRegistry) Active() []models.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]models.Location, 0, len(r.snapshot))
	for _, loc := range r.snapshot {
		if loc.Active {
			active = append(active, loc)
		}
	}
	return active
}

// Find looks a location up by id in the current snapshot.
func (r *LocationRegistry) Find(id string) (models.Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, loc := range r.snapshot {
		if loc.ID == id {
			return loc, true
		}
	}
	return models.Location{}, false
}

// FindByName looks a location up by its display name in the current snapshot.
func (r *LocationRegistry) FindByName(name string) (models.Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, loc := range r.snapshot {
		if loc.Name == name {
			return loc, true
		}
	}
	return models.Location{}, false
}

// Add validates the input shape and forwards it to the store. The active flag
// of the new location is whatever the store assigns.
func (r *LocationRegistry) Add(ctx context.Context, name, coordinates string) (models.Location, error) {
	input := newLocation{
		Name:        strings.TrimSpace(name),
		Coordinates: strings.TrimSpace(coordinates),
	}
	if err := ValidateStruct(r.validate, input); err != nil {
		return models.Location{}, err
	}

	location, err := r.store.AddLocation(ctx, input.Name, input.Coordinates)
	if err != nil {
		r.logger.Error("Failed to add location",
			zap.String("name", input.Name),
			zap.Error(err))
		return models.Location{}, &models.MutationError{Op: "add location", Err: err}
	}

	r.mu.Lock()
	next := make([]models.Location, 0, len(r.snapshot)+1)
	next = append(next, r.snapshot...)
	r.snapshot = append(next, location)
	r.mutations++
	r.mu.Unlock()

	r.logger.Info("Location added",
		zap.String("id", location.ID),
		zap.String("name", location.Name))

	return location, nil
}

// SetActive forwards the toggle to the store. Unknown ids surface as
// *models.NotFoundError, other failures as *models.MutationError.
func (r *LocationRegistry) SetActive(ctx context.Context, id string, active bool) (models.Location, error) {
	if strings.TrimSpace(id) == "" {
		return models.Location{}, &models.ValidationError{Field: "id", Reason: "is required"}
	}

	location, err := r.store.SetLocationActive(ctx, id, active)
	if err != nil {
		var notFound *models.NotFoundError
		if errors.As(err, &notFound) {
			return models.Location{}, notFound
		}
		r.logger.Error("Failed to toggle location",
			zap.String("id", id),
			zap.Bool("active", active),
			zap.Error(err))
		return models.Location{}, &models.MutationError{Op: "toggle location", Err: err}
	}

	r.mu.Lock()
	next := make([]models.Location, 0, len(r.snapshot))
	replaced := false
	for _, loc := range r.snapshot {
		if loc.ID == location.ID {
			next = append(next, location)
			replaced = true
			continue
		}
		next = append(next, loc)
	}
	if !replaced {
		next = append(next, location)
	}
	r.snapshot = next
	r.mutations++
	r.mu.Unlock()

	r.logger.Info("Location active status updated",
		zap.String("id", location.ID),
		zap.Bool("active", location.Active))

	return location, nil
}

// FromStore reports whether the current snapshot came from the store rather
// than the reference dataset.
func (r *LocationRegistry) FromStore() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fromStore
}

func (r *LocationRegistry) FallbackStats() map[string]interface{} {
	return r.reporter.stats()
}
