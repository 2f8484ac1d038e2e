package equity

import (
	"github.com/trovebot/trove/cascade"
)

// RawScoreCalculator values a move by the cumulative points of its
// cascade, scaled by a configured weight. On its own it is the greedy
// strategy.
type RawScoreCalculator struct {
	weight float64
}

func NewRawScoreCalculator(weight float64) *RawScoreCalculator {
	return &RawScoreCalculator{weight: weight}
}

func (rsc *RawScoreCalculator) Equity(res *cascade.Result) float64 {
	return rsc.weight * res.Score
}

func (rsc *RawScoreCalculator) Type() string { return "raw" }
