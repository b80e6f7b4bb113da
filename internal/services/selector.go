package services

import (
	"github.com/bobby-s-dev/energy-site-navigator/internal/models"
)

// SelectBest returns the element with the strictly greatest score. On ties the
// earliest element wins. ok is false for an empty input.
func SelectBest[T any](items []T, scoreOf func(T) float64) (best T, ok bool) {
	if len(items) == 0 {
		return best, false
	}

	best = items[0]
	bestScore := scoreOf(best)
	for _, item := range items[1:] {
		if score := scoreOf(item); score > bestScore {
			best, bestScore = item, score
		}
	}
	return best, true
}

func SolarScore(r models.SolarResult) float64 { return r.SolarScore }

func WindScore(r models.WindResult) float64 { return r.WindScore }

func HybridScoreOf(r models.CombinedResult) float64 { return r.HybridScore }

// BestOf runs the three independent reductions over one run's results.
func BestOf(results models.AnalysisResults) models.Headlines {
	var headlines models.Headlines

	if s, ok := SelectBest(results.Solar, SolarScore); ok {
		headlines.Solar = &s
	}
	if w, ok := SelectBest(results.Wind, WindScore); ok {
		headlines.Wind = &w
	}
	if c, ok := SelectBest(results.Combined, HybridScoreOf); ok {
		headlines.Hybrid = &c
		headlines.HybridTotalOutputKWh = c.TotalOutputKWh()
	}

	return headlines
}
