package services

import (
	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

// MergeResults produces the combined view of one analysis run.
//
// A non-empty backend combined collection is authoritative and returned as is.
// Otherwise every solar entry is paired with the first wind entry for the same
// location and a hybrid entry is synthesized; solar entries without a wind
// match are dropped. Output follows solar input order. It never fails.
func MergeResults(solar []models.SolarResult, wind []models.WindResult, combined []models.CombinedResult) []models.CombinedResult {
	if len(combined) > 0 {
		return combined
	}

	merged := make([]models.CombinedResult, 0, len(solar))
	for _, s := range solar {
		w, ok := matchWind(s, wind)
		if !ok {
			continue
		}
		merged = append(merged, combine(s, w))
	}
	return merged
}

// matchWind joins on location id when both sides carry one and on the exact,
// case-sensitive location name otherwise. The first match wins.
func matchWind(s models.SolarResult, wind []models.WindResult) (models.WindResult, bool) {
	for _, w := range wind {
		if sameLocation(s.LocationID, s.Location, w.LocationID, w.Location) {
			return w, true
		}
	}
	return models.WindResult{}, false
}

func sameLocation(solarID, solarName, windID, windName string) bool {
	if solarID != "" && windID != "" {
		return solarID == windID
	}
	return solarName == windName
}

func combine(s models.SolarResult, w models.WindResult) models.CombinedResult {
	elevation := s.ElevationMeters
	if elevation == 0 {
		elevation = w.ElevationMeters
	}

	locationID := s.LocationID
	if locationID == "" {
		locationID = w.LocationID
	}

	return models.CombinedResult{
		Location:        s.Location,
		LocationID:      locationID,
		SolarScore:      s.SolarScore,
		WindScore:       w.WindScore,
		HybridScore:     HybridScore(s.SolarScore, w.WindScore),
		SolarOutput:     s.EstimatedDailyOutputKWh,
		WindOutput:      w.EstimatedDailyOutputKWh,
		ElevationMeters: elevation,
	}
}

// HybridScore is the unweighted mean of the two modality scores.
func HybridScore(solarScore, windScore float64) float64 {
	return (solarScore + windScore) / 2
}

// CheckConsistency reports combined entries whose location is missing from
// either the solar or the wind collection of the same results.
func CheckConsistency(results models.AnalysisResults) []string {
	var orphans []string
	for _, c := range results.Combined {
		inSolar := false
		for _, s := range results.Solar {
			if sameLocation(c.LocationID, c.Location, s.LocationID, s.Location) {
				inSolar = true
				break
			}
		}
		inWind := false
		for _, w := range results.Wind {
			if sameLocation(c.LocationID, c.Location, w.LocationID, w.Location) {
				inWind = true
				break
			}
		}
		if !inSolar || !inWind {
			orphans = append(orphans, c.Location)
		}
	}
	return orphans
}
