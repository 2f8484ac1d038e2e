package equity

import (
	"github.com/trovebot/trove/cache"
	"github.com/trovebot/trove/cascade"
)

// RiskCalculator penalizes terminal boards in proportion to how close
// they sit to deadlock. The penalty is -weight/(1+mobility): harshest
// when no swap is left, fading as options accumulate.
type RiskCalculator struct {
	weight float64
	table  *cache.MobilityTable
}

func NewRiskCalculator(weight float64, table *cache.MobilityTable) *RiskCalculator {
	return &RiskCalculator{weight: weight, table: table}
}

func (rc *RiskCalculator) Equity(res *cascade.Result) float64 {
	mob := cachedMobility(rc.table, res.Final)
	return -rc.weight / float64(1+mob)
}

func (rc *RiskCalculator) Type() string { return "risk" }
