package services

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

var errUpstreamDown = errors.New("upstream unavailable")

// fakeUpstream is an in-memory AnalysisClient. Each *Err field, when set,
// makes the matching call fail.
type fakeUpstream struct {
	mu        sync.Mutex
	locations []models.Location
	raw       models.RawAnalysis
	monthly   models.MonthlyData
	elevation *models.ElevationMap

	listErr      error
	addErr       error
	toggleErr    error
	analyzeErr   error
	monthlyErr   error
	elevationErr error

	// analyzeHook runs inside RunAnalysis before it returns.
	analyzeHook func(ctx context.Context, call int) error
	// listHook runs inside ListLocations after the list was copied.
	listHook func()

	analyzeCalls int
	monthlyCalls int
}

func newFakeUpstream(locations ...models.Location) *fakeUpstream {
	return &fakeUpstream{locations: locations}
}

func (f *fakeUpstream) ListLocations(_ context.Context) ([]models.Location, error) {
	f.mu.Lock()
	hook := f.listHook
	locations, err := append([]models.Location(nil), f.locations...), f.listErr
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return locations, nil
}

func (f *fakeUpstream) AddLocation(_ context.Context, name, coordinates string) (models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return models.Location{}, f.addErr
	}
	loc := models.Location{
		ID:          strconv.Itoa(len(f.locations) + 1),
		Name:        name,
		Coordinates: coordinates,
		Active:      true,
	}
	f.locations = append(f.locations, loc)
	return loc, nil
}

func (f *fakeUpstream) SetLocationActive(_ context.Context, id string, active bool) (models.Location, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return models.Location{}, f.toggleErr
	}
	for i := range f.locations {
		if f.locations[i].ID == id {
			f.locations[i].Active = active
			return f.locations[i], nil
		}
	}
	return models.Location{}, &models.NotFoundError{Resource: "location", ID: id}
}

func (f *fakeUpstream) RunAnalysis(ctx context.Context, _, _ string) (models.RawAnalysis, error) {
	f.mu.Lock()
	f.analyzeCalls++
	call := f.analyzeCalls
	hook := f.analyzeHook
	raw, err := f.raw, f.analyzeErr
	f.mu.Unlock()

	if hook != nil {
		if hookErr := hook(ctx, call); hookErr != nil {
			return models.RawAnalysis{}, hookErr
		}
	}
	if err != nil {
		return models.RawAnalysis{}, err
	}
	return raw, nil
}

func (f *fakeUpstream) FetchMonthlyData(_ context.Context, _, _ string) (models.MonthlyData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthlyCalls++
	if f.monthlyErr != nil {
		return nil, f.monthlyErr
	}
	return f.monthly.Clone(), nil
}

func (f *fakeUpstream) FetchElevationMap(_ context.Context, _, _ string) (*models.ElevationMap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.elevationErr != nil {
		return nil, f.elevationErr
	}
	return f.elevation, nil
}

func (f *fakeUpstream) calls() (analyze, monthly int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analyzeCalls, f.monthlyCalls
}
