package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
	"github.com/bobby-s-dev/energy-site-navigator/internal/store"
)

// AnalysisClient is the upstream analysis service contract.
type AnalysisClient interface {
	LocationStore
	RunAnalysis(ctx context.Context, startDate, endDate string) (models.RawAnalysis, error)
	FetchMonthlyData(ctx context.Context, location, coordinates string) (models.MonthlyData, error)
	FetchElevationMap(ctx context.Context, location, coordinates string) (*models.ElevationMap, error)
}

// AnalysisService turns upstream analysis responses into ranked, comparable runs.
// Read failures are absorbed with reference data; a run overtaken by a newer
// one is discarded.
type AnalysisService struct {
	client   AnalysisClient
	registry *LocationRegistry
	fallback *FallbackProvider
	cache    *ResultCache
	store    store.ResultStore
	reporter *fallbackReporter
	logger   *zap.Logger
	timeout  time.Duration

	seq atomic.Uint64

	mu              sync.Mutex
	cancelInFlight  context.CancelFunc
	inFlightSeq     uint64
	lastRunTime     time.Time
	liveCount       int
	fallbackCount   int
	supersededCount int

	saveMu   sync.Mutex
	savedSeq uint64
}

const saveTimeout = 10 * time.Second

func NewAnalysisService(
	client AnalysisClient,
	registry *LocationRegistry,
	cache *ResultCache,
	resultStore store.ResultStore,
	timeout time.Duration,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		client:   client,
		registry: registry,
		fallback: registry.fallback,
		cache:    cache,
		store:    resultStore,
		reporter: registry.reporter,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run analyzes the active locations over the given date range. Dates are
// passed through unchanged. A newer Run cancels this one; the older call then
// returns models.ErrSuperseded and its results are dropped.
func (s *AnalysisService) Run(ctx context.Context, startDate, endDate string) (models.AnalysisRun, error) {
	if err := ctx.Err(); err != nil {
		return models.AnalysisRun{}, err
	}

	gen := s.cache.AnalysisGeneration()
	s.registry.List(ctx)
	if len(s.registry.Active()) == 0 {
		return models.AnalysisRun{}, &models.ValidationError{Field: "locations", Reason: "no active locations to analyze"}
	}

	seq, runCtx, release := s.begin(ctx)
	defer release()

	startTime := time.Now()
	s.logger.Info("Starting analysis",
		zap.Uint64("seq", seq),
		zap.String("start_date", startDate),
		zap.String("end_date", endDate),
		zap.Int("active_locations", len(s.registry.Active())))

	results, source, err := s.fetchResults(runCtx, startDate, endDate)
	if err != nil && !s.isLatest(seq) {
		return models.AnalysisRun{}, s.superseded(seq)
	}
	if err != nil && ctx.Err() != nil {
		return models.AnalysisRun{}, ctx.Err()
	}
	if err != nil {
		s.reporter.report("run analysis", err)
		results = s.fallback.AnalysisResults()
		source = models.SourceFallback
	}

	run := models.AnalysisRun{
		ID:          uuid.NewString(),
		StartDate:   startDate,
		EndDate:     endDate,
		Source:      source,
		Results:     results,
		Headlines:   BestOf(results),
		CompletedAt: time.Now().UTC(),
	}

	if err := s.commit(ctx, seq, gen, run); err != nil {
		return models.AnalysisRun{}, err
	}

	s.logger.Info("Analysis completed",
		zap.String("run_id", run.ID),
		zap.String("source", string(source)),
		zap.Int("solar", len(results.Solar)),
		zap.Int("wind", len(results.Wind)),
		zap.Int("combined", len(results.Combined)),
		zap.Duration("duration", time.Since(startTime)))

	return run, nil
}

func (s *AnalysisService) fetchResults(ctx context.Context, startDate, endDate string) (models.AnalysisResults, models.ResultSource, error) {
	if cached, ok := s.cache.GetAnalysis(startDate, endDate); ok {
		s.logger.Debug("Cache hit for analysis",
			zap.String("start_date", startDate),
			zap.String("end_date", endDate))
		return cached, models.SourceLive, nil
	}

	raw, err := s.client.RunAnalysis(ctx, startDate, endDate)
	if err != nil {
		return models.AnalysisResults{}, "", err
	}

	combined := MergeResults(raw.SolarResults, raw.WindResults, raw.CombinedResults)
	results := models.NewAnalysisResults(raw.SolarResults, raw.WindResults, combined)

	if orphans := CheckConsistency(results); len(orphans) > 0 {
		s.logger.Warn("Combined results reference locations missing from a modality",
			zap.Strings("locations", orphans))
	}

	return results, models.SourceLive, nil
}

// begin registers a new run as the latest one and cancels the one in flight.
func (s *AnalysisService) begin(ctx context.Context) (uint64, context.Context, func()) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if s.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}

	s.mu.Lock()
	seq := s.seq.Add(1)
	if s.cancelInFlight != nil {
		s.logger.Info("Cancelling superseded analysis", zap.Uint64("seq", s.inFlightSeq))
		s.cancelInFlight()
	}
	s.cancelInFlight = cancel
	s.inFlightSeq = seq
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		if s.inFlightSeq == seq {
			s.cancelInFlight = nil
			s.inFlightSeq = 0
		}
		s.mu.Unlock()
		cancel()
	}
	return seq, runCtx, release
}

func (s *AnalysisService) isLatest(seq uint64) bool {
	return s.seq.Load() == seq
}

func (s *AnalysisService) superseded(seq uint64) error {
	s.mu.Lock()
	s.supersededCount++
	s.mu.Unlock()

	s.logger.Info("Discarding superseded analysis result", zap.Uint64("seq", seq))
	return models.ErrSuperseded
}

// commit publishes run unless a newer run has started since. Results are
// cached only if the location set did not change while the run was in flight.
func (s *AnalysisService) commit(ctx context.Context, seq, gen uint64, run models.AnalysisRun) error {
	s.mu.Lock()
	if !s.isLatest(seq) {
		s.supersededCount++
		s.mu.Unlock()
		s.logger.Info("Discarding superseded analysis result", zap.Uint64("seq", seq))
		return models.ErrSuperseded
	}

	if run.Source == models.SourceLive {
		s.cache.SetAnalysisIfCurrent(run.StartDate, run.EndDate, run.Results, gen)
		s.liveCount++
	} else {
		s.fallbackCount++
	}
	s.lastRunTime = run.CompletedAt
	s.mu.Unlock()

	s.save(ctx, seq, run)
	return nil
}

// save persists run outside mu so a slow store never blocks the next run.
// Saves are serialized, and a run older than one already saved is skipped so
// the store's latest run never goes backwards.
func (s *AnalysisService) save(ctx context.Context, seq uint64, run models.AnalysisRun) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if seq < s.savedSeq {
		s.logger.Info("Skipping persistence of overtaken run",
			zap.String("run_id", run.ID),
			zap.Uint64("seq", seq))
		return
	}
	s.savedSeq = seq

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := s.store.SaveRun(saveCtx, run); err != nil {
		s.logger.Warn("Failed to persist analysis run",
			zap.String("run_id", run.ID),
			zap.Error(err))
	}
}

// Locations refreshes and returns the location list.
func (s *AnalysisService) Locations(ctx context.Context) []models.Location {
	return s.registry.List(ctx)
}

func (s *AnalysisService) AddLocation(ctx context.Context, name, coordinates string) (models.Location, error) {
	location, err := s.registry.Add(ctx, name, coordinates)
	if err != nil {
		return models.Location{}, err
	}
	s.cache.InvalidateAnalysis()
	return location, nil
}

func (s *AnalysisService) SetLocationActive(ctx context.Context, id string, active bool) (models.Location, error) {
	location, err := s.registry.SetActive(ctx, id, active)
	if err != nil {
		return models.Location{}, err
	}
	s.cache.InvalidateAnalysis()
	return location, nil
}

// MonthlyData returns the monthly series for one site, or the reference
// series when the upstream call fails.
func (s *AnalysisService) MonthlyData(ctx context.Context, location, coordinates string) models.MonthlyData {
	if cached, ok := s.cache.GetMonthly(coordinates); ok {
		return cached
	}

	data, err := s.client.FetchMonthlyData(ctx, location, coordinates)
	if err != nil {
		s.reporter.report("fetch monthly data", err)
		return s.fallback.MonthlyData()
	}

	s.cache.SetMonthly(coordinates, data)
	return data
}

// ElevationMap returns nil when the upstream call fails; there is no reference map.
func (s *AnalysisService) ElevationMap(ctx context.Context, location, coordinates string) *models.ElevationMap {
	elevation, err := s.client.FetchElevationMap(ctx, location, coordinates)
	if err != nil {
		s.logger.Warn("Elevation map unavailable",
			zap.String("location", location),
			zap.Error(err))
		return nil
	}
	return elevation
}

func (s *AnalysisService) LatestRun(ctx context.Context) (models.AnalysisRun, error) {
	return s.store.LatestRun(ctx)
}

func (s *AnalysisService) GetRun(ctx context.Context, id string) (models.AnalysisRun, error) {
	return s.store.GetRun(ctx, id)
}

// BestSolarMonthly returns the monthly series for the best solar site of the latest run.
func (s *AnalysisService) BestSolarMonthly(ctx context.Context) (models.SolarResult, models.MonthlyData, error) {
	run, err := s.store.LatestRun(ctx)
	if err != nil {
		return models.SolarResult{}, nil, err
	}
	if run.Headlines.Solar == nil {
		return models.SolarResult{}, nil, &models.NotFoundError{Resource: "solar result", ID: run.ID}
	}
	best := *run.Headlines.Solar

	location, ok := s.resolveLocation(ctx, best.LocationID, best.Location)
	if !ok {
		return best, nil, &models.NotFoundError{Resource: "location", ID: best.Location}
	}

	return best, s.MonthlyData(ctx, location.Name, location.Coordinates), nil
}

func (s *AnalysisService) resolveLocation(ctx context.Context, id, name string) (models.Location, bool) {
	lookup := func() (models.Location, bool) {
		if id != "" {
			if loc, ok := s.registry.Find(id); ok {
				return loc, true
			}
		}
		return s.registry.FindByName(name)
	}

	if loc, ok := lookup(); ok {
		return loc, true
	}
	s.registry.List(ctx)
	return lookup()
}

func (s *AnalysisService) GetLastRunTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunTime
}

func (s *AnalysisService) GetStats() map[string]interface{} {
	s.mu.Lock()
	stats := map[string]interface{}{
		"last_run_time":    s.lastRunTime,
		"live_runs":        s.liveCount,
		"fallback_runs":    s.fallbackCount,
		"superseded_runs":  s.supersededCount,
		"locations_known":  len(s.registry.Snapshot()),
		"locations_active": len(s.registry.Active()),
		"fallback_version": s.fallback.Version(),
	}
	s.mu.Unlock()

	stats["cache_stats"] = s.cache.GetStats()
	stats["fallbacks"] = s.reporter.stats()

	if b, ok := s.client.(interface{ BreakerState() string }); ok {
		stats["circuit_breaker"] = b.BreakerState()
	}

	return stats
}

// IsSuperseded reports whether err means a newer run replaced this one.
func IsSuperseded(err error) bool {
	return errors.Is(err, models.ErrSuperseded)
}
