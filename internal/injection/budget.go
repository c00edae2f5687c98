package injection

import (
	"math"

	"github.com/fyrsmithlabs/recalld/internal/config"
	"github.com/fyrsmithlabs/recalld/internal/retrieval"
)

// BudgetSignals are the three derived inputs to the adaptive budget, each
// in [0,1].
type BudgetSignals struct {
	// Quality is the best candidate score. A single weak best match
	// should not justify a large budget.
	Quality float64

	// Density is the fraction of candidates above the confidence
	// threshold. A broad, strong hit set deserves more room.
	Density float64

	// Drift is the session's topic drift. A large topic shift means the
	// assistant needs more re-orientation context, so drift increases
	// the budget.
	Drift float64
}

// ComputeBudgetSignals derives the signals from the candidate set and the
// session's current drift.
func ComputeBudgetSignals(results []retrieval.Result, drift float64, threshold float64) BudgetSignals {
	s := BudgetSignals{Drift: clamp01(drift)}

	if len(results) == 0 {
		return s
	}

	above := 0
	best := 0.0
	for _, r := range results {
		if r.Score > best {
			best = r.Score
		}
		if r.Score >= threshold {
			above++
		}
	}
	s.Quality = clamp01(best)
	s.Density = float64(above) / float64(len(results))
	return s
}

// ComputeAdaptiveBudget combines the signals by the configured weights
// into a token budget clamped to [floor, ceiling].
func ComputeAdaptiveBudget(signals BudgetSignals, cfg config.InjectionConfig) int {
	combined := cfg.WeightQuality*signals.Quality +
		cfg.WeightDensity*signals.Density +
		cfg.WeightDrift*signals.Drift

	budget := cfg.BudgetFloor + int(math.Round(float64(cfg.BudgetCeiling-cfg.BudgetFloor)*combined))
	if budget < cfg.BudgetFloor {
		budget = cfg.BudgetFloor
	}
	if budget > cfg.BudgetCeiling {
		budget = cfg.BudgetCeiling
	}
	return budget
}
