package equity

import (
	"github.com/trovebot/trove/cache"
)

// Weights configures the standard calculator set.
type Weights struct {
	Raw      float64
	Mobility float64
	Risk     float64
}

// DefaultWeights is a raw-score-dominant blend with a light mobility
// reward and a moderate deadlock penalty.
func DefaultWeights() Weights {
	return Weights{Raw: 1.0, Mobility: 0.1, Risk: 0.5}
}

// StandardCalculators builds the default ordered list (raw, mobility,
// risk) sharing one mobility table. A zero weight drops its calculator
// entirely, so it contributes no rationale term.
func StandardCalculators(w Weights, table *cache.MobilityTable) []Calculator {
	var calcs []Calculator
	if w.Raw != 0 {
		calcs = append(calcs, NewRawScoreCalculator(w.Raw))
	}
	if w.Mobility != 0 {
		calcs = append(calcs, NewMobilityCalculator(w.Mobility, table))
	}
	if w.Risk != 0 {
		calcs = append(calcs, NewRiskCalculator(w.Risk, table))
	}
	return calcs
}
