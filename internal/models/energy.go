package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CoordinatesPattern is the accepted "lat,lon" shape for Location.Coordinates.
var CoordinatesPattern = regexp.MustCompile(`^-?\d+(\.\d+)?,-?\d+(\.\d+)?$`)

type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Coordinates string `json:"coordinates"`
	Active      bool   `json:"active"`
}

// ParseCoordinates splits a "lat,lon" string into latitude and longitude.
func ParseCoordinates(coordinates string) (float64, float64, error) {
	if !CoordinatesPattern.MatchString(coordinates) {
		return 0, 0, &ValidationError{Field: "coordinates", Reason: fmt.Sprintf("%q is not a lat,lon pair", coordinates)}
	}

	parts := strings.SplitN(coordinates, ",", 2)
	lat, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, &ValidationError{Field: "coordinates", Reason: err.Error()}
	}
	lon, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, &ValidationError{Field: "coordinates", Reason: err.Error()}
	}
	return lat, lon, nil
}

type SolarResult struct {
	Location                string   `json:"location"`
	LocationID              string   `json:"location_id,omitempty"`
	SolarScore              float64  `json:"solar_score"`
	AvgSolarIrradiance      float64  `json:"avg_solar_irradiance"`
	AvgTemperature          float64  `json:"avg_temperature"`
	AvgHumidity             float64  `json:"avg_humidity"`
	AvgUVIndex              float64  `json:"avg_uv_index"`
	ElevationMeters         float64  `json:"elevation_meters"`
	EstimatedDailyOutputKWh float64  `json:"estimated_daily_output_kwh"`
	PVWattsDerate           *float64 `json:"pvwatts_derate,omitempty"`
}

type WindResult struct {
	Location                string  `json:"location"`
	LocationID              string  `json:"location_id,omitempty"`
	WindScore               float64 `json:"wind_score"`
	AvgWindSpeed            float64 `json:"avg_wind_speed"`
	MaxWindGust             float64 `json:"max_wind_gust"`
	WindDirection           float64 `json:"wind_direction"`
	Pressure                float64 `json:"pressure"`
	WindStability           float64 `json:"wind_stability"`
	ElevationMeters         float64 `json:"elevation_meters"`
	EstimatedDailyOutputKWh float64 `json:"estimated_daily_output_kwh"`
}

// CombinedResult is the hybrid view of one location that has both solar and wind results.
type CombinedResult struct {
	Location        string  `json:"location"`
	LocationID      string  `json:"location_id,omitempty"`
	SolarScore      float64 `json:"solar_score"`
	WindScore       float64 `json:"wind_score"`
	HybridScore     float64 `json:"hybrid_score"`
	SolarOutput     float64 `json:"solar_output"`
	WindOutput      float64 `json:"wind_output"`
	ElevationMeters float64 `json:"elevation_meters"`
}

// TotalOutputKWh is the combined estimated daily output of both modalities.
func (c CombinedResult) TotalOutputKWh() float64 {
	return c.SolarOutput + c.WindOutput
}

type AnalysisResults struct {
	Solar    []SolarResult    `json:"solar"`
	Wind     []WindResult     `json:"wind"`
	Combined []CombinedResult `json:"combined"`
}

// NewAnalysisResults builds results with nil collections replaced by empty ones,
// so they encode as [] rather than null.
func NewAnalysisResults(solar []SolarResult, wind []WindResult, combined []CombinedResult) AnalysisResults {
	if solar == nil {
		solar = []SolarResult{}
	}
	if wind == nil {
		wind = []WindResult{}
	}
	if combined == nil {
		combined = []CombinedResult{}
	}
	return AnalysisResults{Solar: solar, Wind: wind, Combined: combined}
}

// AnalysisRequest is the date range submitted for one analysis run.
// Dates use the "YYYY-MM-DDTHH" form and are passed through unchanged.
type AnalysisRequest struct {
	StartDate string `json:"startDate" validate:"required"`
	EndDate   string `json:"endDate" validate:"required"`
}

// RawAnalysis is the upstream /analyze response body.
type RawAnalysis struct {
	SolarResults    []SolarResult    `json:"solar_results"`
	WindResults     []WindResult     `json:"wind_results"`
	CombinedResults []CombinedResult `json:"combined_results,omitempty"`
}

type ElevationMap struct {
	ImageURL     string  `json:"imageUrl"`
	MinLat       float64 `json:"minLat"`
	MaxLat       float64 `json:"maxLat"`
	MinLon       float64 `json:"minLon"`
	MaxLon       float64 `json:"maxLon"`
	MinElevation float64 `json:"minElevation"`
	MaxElevation float64 `json:"maxElevation"`
}

// SiteRequest identifies one location for the monthly-data and elevation-map calls.
type SiteRequest struct {
	Location    string `json:"location" validate:"required"`
	Coordinates string `json:"coordinates" validate:"required,coordinates"`
}

// ResultSource tells whether a run came from the upstream service or the reference dataset.
type ResultSource string

const (
	SourceLive     ResultSource = "live"
	SourceFallback ResultSource = "fallback"
)

// Headlines holds the best entry of each modality. Each field is nil when
// its collection was empty.
type Headlines struct {
	Solar  *SolarResult    `json:"best_solar"`
	Wind   *WindResult     `json:"best_wind"`
	Hybrid *CombinedResult `json:"best_hybrid"`

	// HybridTotalOutputKWh is the combined daily output of Hybrid, zero without one.
	HybridTotalOutputKWh float64 `json:"total_output_kwh"`
}

type AnalysisRun struct {
	ID          string          `json:"run_id"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Source      ResultSource    `json:"source"`
	Results     AnalysisResults `json:"results"`
	Headlines   Headlines       `json:"headlines"`
	CompletedAt time.Time       `json:"completed_at"`
}

// Clone returns results whose collections share no backing arrays with r.
func (r AnalysisResults) Clone() AnalysisResults {
	return NewAnalysisResults(
		append([]SolarResult(nil), r.Solar...),
		append([]WindResult(nil), r.Wind...),
		append([]CombinedResult(nil), r.Combined...),
	)
}
