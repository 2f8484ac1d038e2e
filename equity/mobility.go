package equity

import (
	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/cache"
	"github.com/trovebot/trove/cascade"
	"github.com/trovebot/trove/movegen"
)

// MobilityCalculator rewards moves whose terminal board still has
// legal swaps available. Greedy raw-score play walks itself into dead
// boards; this term is the counterweight.
type MobilityCalculator struct {
	weight float64
	table  *cache.MobilityTable
}

// NewMobilityCalculator builds a mobility term. table may be nil, in
// which case every call counts moves from scratch.
func NewMobilityCalculator(weight float64, table *cache.MobilityTable) *MobilityCalculator {
	return &MobilityCalculator{weight: weight, table: table}
}

func (mc *MobilityCalculator) Equity(res *cascade.Result) float64 {
	return mc.weight * float64(cachedMobility(mc.table, res.Final))
}

func (mc *MobilityCalculator) Type() string { return "mobility" }

// cachedMobility counts legal moves on s, going through tbl when one
// is provided. The table is lossy: a full fingerprint collision hands
// back the colliding entry's count. That is the same trade the
// lock-free table makes everywhere, and mobility is a heuristic term,
// so we accept it.
func cachedMobility(tbl *cache.MobilityTable, s *board.State) int {
	if tbl == nil {
		return movegen.Mobility(s)
	}
	fp := s.Fingerprint()
	if n, ok := tbl.Lookup(fp); ok {
		return n
	}
	n := movegen.Mobility(s)
	tbl.Store(fp, n)
	return n
}
