package services

import (
	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

// FallbackVersion identifies the reference dataset revision.
const FallbackVersion = "2023.1"

// FallbackProvider supplies the fixed reference dataset substituted when the
// analysis service cannot be reached. Every call returns a fresh copy of the
// same values, so callers may modify what they receive.
type FallbackProvider struct{}

func NewFallbackProvider() *FallbackProvider {
	return &FallbackProvider{}
}

func (f *FallbackProvider) Version() string {
	return FallbackVersion
}

func (f *FallbackProvider) Locations() []models.Location {
	return append([]models.Location(nil), fallbackLocations...)
}

func (f *FallbackProvider) AnalysisResults() models.AnalysisResults {
	return models.NewAnalysisResults(
		append([]models.SolarResult(nil), fallbackSolar...),
		append([]models.WindResult(nil), fallbackWind...),
		append([]models.CombinedResult(nil), fallbackCombined...),
	)
}

func (f *FallbackProvider) MonthlyData() models.MonthlyData {
	return fallbackMonthly.Clone()
}

var fallbackLocations = []models.Location{
	{ID: "1", Name: "Kern County, CA", Coordinates: "35.4937,-118.8591", Active: true},
	{ID: "2", Name: "Phoenix, AZ", Coordinates: "33.4484,-112.0740", Active: true},
	{ID: "3", Name: "Amarillo, TX", Coordinates: "35.2220,-101.8313", Active: true},
	{ID: "4", Name: "Boulder, CO", Coordinates: "40.0150,-105.2705", Active: true},
	{ID: "5", Name: "San Diego, CA", Coordinates: "32.7157,-117.1611", Active: true},
	{ID: "6", Name: "Chicago, IL", Coordinates: "41.8781,-87.6298", Active: true},
}

var fallbackSolar = []models.SolarResult{
	{Location: "Kern County, CA", LocationID: "1", SolarScore: 92.5, AvgSolarIrradiance: 780, AvgTemperature: 28.3, AvgHumidity: 32, AvgUVIndex: 8.9, ElevationMeters: 625, EstimatedDailyOutputKWh: 5840},
	{Location: "Phoenix, AZ", LocationID: "2", SolarScore: 96.2, AvgSolarIrradiance: 810, AvgTemperature: 32.1, AvgHumidity: 28, AvgUVIndex: 9.6, ElevationMeters: 340, EstimatedDailyOutputKWh: 6120},
	{Location: "Amarillo, TX", LocationID: "3", SolarScore: 89.7, AvgSolarIrradiance: 760, AvgTemperature: 25.8, AvgHumidity: 42, AvgUVIndex: 8.5, ElevationMeters: 1100, EstimatedDailyOutputKWh: 5620},
	{Location: "Boulder, CO", LocationID: "4", SolarScore: 84.3, AvgSolarIrradiance: 720, AvgTemperature: 22.4, AvgHumidity: 39, AvgUVIndex: 8.3, ElevationMeters: 1650, EstimatedDailyOutputKWh: 5380},
	{Location: "San Diego, CA", LocationID: "5", SolarScore: 86.1, AvgSolarIrradiance: 740, AvgTemperature: 24.8, AvgHumidity: 55, AvgUVIndex: 8.4, ElevationMeters: 20, EstimatedDailyOutputKWh: 5460},
	{Location: "Chicago, IL", LocationID: "6", SolarScore: 71.5, AvgSolarIrradiance: 630, AvgTemperature: 18.9, AvgHumidity: 64, AvgUVIndex: 7.2, ElevationMeters: 180, EstimatedDailyOutputKWh: 4640},
}

var fallbackWind = []models.WindResult{
	{Location: "Kern County, CA", LocationID: "1", WindScore: 73.5, AvgWindSpeed: 6.8, MaxWindGust: 18.4, WindDirection: 220, Pressure: 1013, WindStability: 1.4, ElevationMeters: 625, EstimatedDailyOutputKWh: 3780},
	{Location: "Phoenix, AZ", LocationID: "2", WindScore: 58.2, AvgWindSpeed: 5.2, MaxWindGust: 15.6, WindDirection: 240, Pressure: 1010, WindStability: 1.8, ElevationMeters: 340, EstimatedDailyOutputKWh: 2950},
	{Location: "Amarillo, TX", LocationID: "3", WindScore: 89.3, AvgWindSpeed: 9.1, MaxWindGust: 24.5, WindDirection: 265, Pressure: 1004, WindStability: 2.3, ElevationMeters: 1100, EstimatedDailyOutputKWh: 5780},
	{Location: "Boulder, CO", LocationID: "4", WindScore: 86.7, AvgWindSpeed: 8.6, MaxWindGust: 22.8, WindDirection: 290, Pressure: 998, WindStability: 2.5, ElevationMeters: 1650, EstimatedDailyOutputKWh: 5480},
	{Location: "San Diego, CA", LocationID: "5", WindScore: 62.4, AvgWindSpeed: 5.7, MaxWindGust: 14.8, WindDirection: 270, Pressure: 1015, WindStability: 1.2, ElevationMeters: 20, EstimatedDailyOutputKWh: 3240},
	{Location: "Chicago, IL", LocationID: "6", WindScore: 79.8, AvgWindSpeed: 7.8, MaxWindGust: 21.3, WindDirection: 250, Pressure: 1008, WindStability: 3.2, ElevationMeters: 180, EstimatedDailyOutputKWh: 4860},
}

// Hybrid scores are stored rounded to one decimal, as the reference backend reported them.
var fallbackCombined = []models.CombinedResult{
	{Location: "Kern County, CA", LocationID: "1", SolarScore: 92.5, WindScore: 73.5, HybridScore: 83.0, SolarOutput: 5840, WindOutput: 3780, ElevationMeters: 625},
	{Location: "Phoenix, AZ", LocationID: "2", SolarScore: 96.2, WindScore: 58.2, HybridScore: 77.2, SolarOutput: 6120, WindOutput: 2950, ElevationMeters: 340},
	{Location: "Amarillo, TX", LocationID: "3", SolarScore: 89.7, WindScore: 89.3, HybridScore: 89.5, SolarOutput: 5620, WindOutput: 5780, ElevationMeters: 1100},
	{Location: "Boulder, CO", LocationID: "4", SolarScore: 84.3, WindScore: 86.7, HybridScore: 85.5, SolarOutput: 5380, WindOutput: 5480, ElevationMeters: 1650},
	{Location: "San Diego, CA", LocationID: "5", SolarScore: 86.1, WindScore: 62.4, HybridScore: 74.3, SolarOutput: 5460, WindOutput: 3240, ElevationMeters: 20},
	{Location: "Chicago, IL", LocationID: "6", SolarScore: 71.5, WindScore: 79.8, HybridScore: 75.6, SolarOutput: 4640, WindOutput: 4860, ElevationMeters: 180},
}

var fallbackMonthly = models.MonthlyData{
	"Jan": 4.2,
	"Feb": 5.1,
	"Mar": 6.3,
	"Apr": 7.6,
	"May": 8.5,
	"Jun": 9.1,
	"Jul": 9.0,
	"Aug": 8.3,
	"Sep": 7.5,
	"Oct": 6.2,
	"Nov": 4.8,
	"Dec": 3.9,
}
