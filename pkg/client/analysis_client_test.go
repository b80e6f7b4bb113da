package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

func testConfig() ClientConfig {
	return ClientConfig{
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
		Multiplier:     2,
		Threshold:      100,
		BreakerTimeout: time.Second,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, config ClientConfig) *AnalysisClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAnalysisClient(server.URL+"/", config, zap.NewNop())
}

func TestAnalysisClient_ListLocations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/locations", r.URL.Path)
		w.Write([]byte(`[{"id":"1","name":"Kern County, CA","coordinates":"35.4937,-118.8591","active":true}]`))
	}, testConfig())

	locations, err := client.ListLocations(context.Background())

	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Equal(t, models.Location{ID: "1", Name: "Kern County, CA", Coordinates: "35.4937,-118.8591", Active: true}, locations[0])
}

func TestAnalysisClient_RunAnalysisRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req models.AnalysisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2023-01-01T00", req.StartDate)
		assert.Equal(t, "2023-12-31T23", req.EndDate)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"solar_results":[{"location":"A","solar_score":90}],"wind_results":[]}`))
	}, testConfig())

	raw, err := client.RunAnalysis(context.Background(), "2023-01-01T00", "2023-12-31T23")

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	require.Len(t, raw.SolarResults, 1)
	assert.Equal(t, 90.0, raw.SolarResults[0].SolarScore)
	assert.Empty(t, raw.WindResults)
}

func TestAnalysisClient_RunAnalysisGivesUp(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, testConfig())

	_, err := client.RunAnalysis(context.Background(), "a", "b")

	var upstream *models.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "run analysis", upstream.Op)
	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusBadGateway, status.Code)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAnalysisClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"No active locations to analyze"}`))
	}, testConfig())

	_, err := client.RunAnalysis(context.Background(), "a", "b")

	var status *StatusError
	require.True(t, errors.As(err, &status))
	assert.Equal(t, http.StatusBadRequest, status.Code)
	assert.Contains(t, status.Body, "No active locations")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAnalysisClient_AddLocationIsNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusInternalServerError)
	}, testConfig())

	_, err := client.AddLocation(context.Background(), "A", "1,2")

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAnalysisClient_AddLocation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Boulder, CO", body["name"])
		assert.Equal(t, "40.0150,-105.2705", body["coordinates"])
		w.Write([]byte(`{"id":"7","name":"Boulder, CO","coordinates":"40.0150,-105.2705","active":true}`))
	}, testConfig())

	loc, err := client.AddLocation(context.Background(), "Boulder, CO", "40.0150,-105.2705")

	require.NoError(t, err)
	assert.Equal(t, "7", loc.ID)
	assert.True(t, loc.Active)
}

func TestAnalysisClient_SetLocationActive(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		if r.URL.Path != "/locations/3/toggle" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Location not found"}`))
			return
		}
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body["active"])
		w.Write([]byte(`{"id":"3","name":"Amarillo, TX","coordinates":"35.2220,-101.8313","active":false}`))
	}, testConfig())

	loc, err := client.SetLocationActive(context.Background(), "3", false)
	require.NoError(t, err)
	assert.False(t, loc.Active)

	_, err = client.SetLocationActive(context.Background(), "99", true)
	var notFound *models.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "99", notFound.ID)
}

func TestAnalysisClient_FetchMonthlyData(t *testing.T) {
	var empty atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/monthly-data", r.URL.Path)
		var req models.SiteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Phoenix, AZ", req.Location)
		if empty.Load() {
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"Jan":4.2,"Feb":5.1}`))
	}, testConfig())

	monthly, err := client.FetchMonthlyData(context.Background(), "Phoenix, AZ", "33.4484,-112.0740")
	require.NoError(t, err)
	assert.Equal(t, models.MonthlyData{"Jan": 4.2, "Feb": 5.1}, monthly)

	empty.Store(true)
	_, err = client.FetchMonthlyData(context.Background(), "Phoenix, AZ", "33.4484,-112.0740")
	var upstream *models.UpstreamError
	assert.True(t, errors.As(err, &upstream))
}

func TestAnalysisClient_FetchElevationMap(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/elevation-map", r.URL.Path)
		w.Write([]byte(`{"imageUrl":"data:image/png;base64,AAAA","minLat":33.3,"maxLat":33.6,"minLon":-112.2,"maxLon":-111.9,"minElevation":300,"maxElevation":750}`))
	}, testConfig())

	elevation, err := client.FetchElevationMap(context.Background(), "Phoenix, AZ", "33.4484,-112.0740")

	require.NoError(t, err)
	require.NotNil(t, elevation)
	assert.Equal(t, "data:image/png;base64,AAAA", elevation.ImageURL)
	assert.Equal(t, 750.0, elevation.MaxElevation)
}

func TestAnalysisClient_CircuitBreakerOpens(t *testing.T) {
	var calls int32
	config := testConfig()
	config.MaxRetries = 0
	config.Threshold = 3
	config.BreakerTimeout = time.Minute

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, config)

	for i := 0; i < 3; i++ {
		_, err := client.ListLocations(context.Background())
		require.Error(t, err)
	}
	assert.Equal(t, "open", client.BreakerState())

	_, err := client.ListLocations(context.Background())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAnalysisClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	config := testConfig()
	config.Threshold = 1

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, config)

	for i := 0; i < 3; i++ {
		_, err := client.SetLocationActive(context.Background(), "x", true)
		require.Error(t, err)
	}
	assert.Equal(t, "closed", client.BreakerState())
}
