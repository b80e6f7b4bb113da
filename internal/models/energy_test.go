package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		name        string
		coordinates string
		lat, lon    float64
		wantErr     bool
	}{
		{name: "decimal pair", coordinates: "35.4937,-118.8591", lat: 35.4937, lon: -118.8591},
		{name: "integers", coordinates: "40,-105", lat: 40, lon: -105},
		{name: "both negative", coordinates: "-33.8688,-151.2093", lat: -33.8688, lon: -151.2093},
		{name: "space after comma", coordinates: "35.4, -118.8", wantErr: true},
		{name: "single value", coordinates: "35.4937", wantErr: true},
		{name: "trailing dot", coordinates: "35.,-118.8", wantErr: true},
		{name: "empty", coordinates: "", wantErr: true},
		{name: "letters", coordinates: "north,west", wantErr: true},
		{name: "letters in longitude", coordinates: "35.49,abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, err := ParseCoordinates(tt.coordinates)
			if tt.wantErr {
				var validation *ValidationError
				require.True(t, errors.As(err, &validation))
				assert.Equal(t, "coordinates", validation.Field)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, lat, 1e-9)
			assert.InDelta(t, tt.lon, lon, 1e-9)
		})
	}
}

func TestCombinedResult_TotalOutputKWh(t *testing.T) {
	c := CombinedResult{SolarOutput: 5620, WindOutput: 5780}
	assert.Equal(t, 11400.0, c.TotalOutputKWh())
}

func TestNewAnalysisResults_EncodesEmptyCollections(t *testing.T) {
	data, err := json.Marshal(NewAnalysisResults(nil, nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"solar":[],"wind":[],"combined":[]}`, string(data))
}

func TestAnalysisResults_Clone(t *testing.T) {
	original := NewAnalysisResults(
		[]SolarResult{{Location: "A", SolarScore: 1}},
		[]WindResult{{Location: "A", WindScore: 2}},
		[]CombinedResult{{Location: "A", HybridScore: 1.5}},
	)

	clone := original.Clone()
	clone.Solar[0].SolarScore = 99
	clone.Wind[0].WindScore = 99
	clone.Combined[0].HybridScore = 99

	assert.Equal(t, 1.0, original.Solar[0].SolarScore)
	assert.Equal(t, 2.0, original.Wind[0].WindScore)
	assert.Equal(t, 1.5, original.Combined[0].HybridScore)
}

func TestRawAnalysis_DecodesUpstreamBody(t *testing.T) {
	body := `{
		"solar_results": [{"location": "Phoenix, AZ", "solar_score": 96.2, "estimated_daily_output_kwh": 6120, "pvwatts_derate": 0.86}],
		"wind_results": [{"location": "Phoenix, AZ", "wind_score": 58.2}]
	}`

	var raw RawAnalysis
	require.NoError(t, json.Unmarshal([]byte(body), &raw))

	require.Len(t, raw.SolarResults, 1)
	require.Len(t, raw.WindResults, 1)
	assert.Nil(t, raw.CombinedResults)
	assert.Equal(t, 96.2, raw.SolarResults[0].SolarScore)
	require.NotNil(t, raw.SolarResults[0].PVWattsDerate)
	assert.Equal(t, 0.86, *raw.SolarResults[0].PVWattsDerate)
}

func TestErrors_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")

	mutation := &MutationError{Op: "add location", Err: cause}
	assert.ErrorIs(t, mutation, cause)
	assert.Equal(t, "add location failed: connection refused", mutation.Error())

	upstream := &UpstreamError{Op: "run analysis", Err: cause}
	assert.ErrorIs(t, upstream, cause)

	notFound := &NotFoundError{Resource: "location", ID: "42"}
	assert.Equal(t, `location "42" not found`, notFound.Error())
}
