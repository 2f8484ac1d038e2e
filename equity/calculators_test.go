package equity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/cache"
	"github.com/trovebot/trove/cascade"
	"github.com/trovebot/trove/equity"
	"github.com/trovebot/trove/gem"
)

func mustBoard(t *testing.T, rows ...string) *board.State {
	t.Helper()
	grid := make([][]gem.Gem, len(rows))
	for i, row := range rows {
		for _, rn := range row {
			g, err := gem.FromRune(rn)
			if err != nil {
				t.Fatal(err)
			}
			grid[i] = append(grid[i], g)
		}
	}
	s, err := board.New(grid)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// oneMoveBoard has exactly one legal swap; deadlocked has none. Both
// fixtures are shared with the movegen tests.
func oneMoveBoard(t *testing.T) *board.State {
	return mustBoard(t,
		"AAS",
		"CSS",
		"SAA")
}

func deadlockedBoard(t *testing.T) *board.State {
	return mustBoard(t,
		"RSE",
		"SER",
		"ERS")
}

func TestRawScore(t *testing.T) {
	res := &cascade.Result{Final: deadlockedBoard(t), Score: 7.5}

	rsc := equity.NewRawScoreCalculator(2.0)
	assert.Equal(t, 15.0, rsc.Equity(res))
	assert.Equal(t, "raw", rsc.Type())

	assert.Equal(t, 0.0, equity.NewRawScoreCalculator(0).Equity(res))
}

func TestMobilityTerm(t *testing.T) {
	res := &cascade.Result{Final: oneMoveBoard(t)}

	mc := equity.NewMobilityCalculator(0.5, nil)
	assert.Equal(t, 0.5, mc.Equity(res))
	assert.Equal(t, "mobility", mc.Type())

	dead := &cascade.Result{Final: deadlockedBoard(t)}
	assert.Equal(t, 0.0, mc.Equity(dead))
}

func TestMobilityTermUsesTable(t *testing.T) {
	tbl := cache.NewMobilityTable(0)
	mc := equity.NewMobilityCalculator(1.0, tbl)
	res := &cascade.Result{Final: oneMoveBoard(t)}

	assert.Equal(t, 1.0, mc.Equity(res))
	assert.Equal(t, uint64(1), tbl.Created())
	assert.Equal(t, uint64(0), tbl.Hits())

	// Same terminal board again: answered from the table.
	assert.Equal(t, 1.0, mc.Equity(res))
	assert.Equal(t, uint64(1), tbl.Created())
	assert.Equal(t, uint64(1), tbl.Hits())
}

func TestRiskTerm(t *testing.T) {
	rc := equity.NewRiskCalculator(0.5, nil)
	assert.Equal(t, "risk", rc.Type())

	// Deadlocked board: full penalty.
	dead := &cascade.Result{Final: deadlockedBoard(t)}
	assert.Equal(t, -0.5, rc.Equity(dead))

	// One move left: penalty halves.
	one := &cascade.Result{Final: oneMoveBoard(t)}
	assert.Equal(t, -0.25, rc.Equity(one))
}

func TestCombinedExplain(t *testing.T) {
	tbl := cache.NewMobilityTable(0)
	cc := equity.NewCombined(
		equity.StandardCalculators(equity.Weights{Raw: 1.0, Mobility: 0.1, Risk: 0.5}, tbl)...)

	res := &cascade.Result{Final: oneMoveBoard(t), Score: 6}
	score, rationale := cc.Explain(res)

	assert.Len(t, rationale, 3)
	assert.Equal(t, "raw", rationale[0].Name)
	assert.Equal(t, "mobility", rationale[1].Name)
	assert.Equal(t, "risk", rationale[2].Name)

	assert.Equal(t, 6.0, rationale[0].Value)
	assert.Equal(t, 0.1, rationale[1].Value)
	assert.Equal(t, -0.25, rationale[2].Value)

	// The rationale is the score: same values, same order.
	assert.Equal(t, score, rationale.Total())
	assert.Equal(t, score, cc.Equity(res))
}

func TestCombinedIsACalculator(t *testing.T) {
	var c equity.Calculator = equity.NewCombined(equity.NewRawScoreCalculator(1))
	res := &cascade.Result{Final: deadlockedBoard(t), Score: 3}
	assert.Equal(t, 3.0, c.Equity(res))
	assert.Equal(t, "combined", c.Type())
}

func TestZeroWeightDropsTerm(t *testing.T) {
	calcs := equity.StandardCalculators(equity.Weights{Raw: 1.0}, nil)
	assert.Len(t, calcs, 1)
	assert.Equal(t, "raw", calcs[0].Type())

	_, rationale := equity.NewCombined(calcs...).Explain(
		&cascade.Result{Final: deadlockedBoard(t), Score: 2})
	assert.Len(t, rationale, 1)
}

func TestRationaleString(t *testing.T) {
	r := equity.Rationale{
		{Name: "raw", Value: 6},
		{Name: "risk", Value: -0.25},
	}
	assert.Equal(t, "raw 6.000, risk -0.250", r.String())
}
