package search

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/trovebot/trove/bag"
	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/cascade"
	"github.com/trovebot/trove/equity"
	"github.com/trovebot/trove/gem"
	"github.com/trovebot/trove/move"
	"github.com/trovebot/trove/movegen"
)

func TestMain(m *testing.M) {
	// Search debug logs are noisy.
	level := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	exitVal := m.Run()
	zerolog.SetGlobalLevel(level)

	os.Exit(exitVal)
}

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

// twoMoveBoard admits exactly two legal swaps; see the movegen tests.
func twoMoveBoard(t *testing.T) *board.State {
	return mustBoard(t,
		"RRSR",
		"TEAE",
		"SSAS",
		"ETRT")
}

func standardSolver(seed int64) *Solver {
	return NewSolver(bag.Default(seed),
		equity.StandardCalculators(equity.DefaultWeights(), nil))
}

// replayValue recomputes one candidate's value through the same public
// pieces the solver uses: swap, resolve against the forked stream,
// explain, then discount the best reply. It reports whether a
// lookahead term applied.
func replayValue(t *testing.T, st *board.State, m move.Move, b *bag.Bag,
	cc *equity.Combined, discount float64, plies int) (float64, bool) {
	t.Helper()
	is := is.New(t)

	swapped, err := st.WithSwap(m.From, m.To)
	is.NoErr(err)
	res, err := cascade.NewResolver(b, cascade.DefaultCurve(), 0).Resolve(swapped)
	is.NoErr(err)
	score, _ := cc.Explain(res)
	if plies <= 1 {
		return score, false
	}
	replies := movegen.LegalMoves(res.Final)
	if len(replies) == 0 {
		return score, false
	}
	best := math.Inf(-1)
	for i, rm := range replies {
		rv, _ := replayValue(t, res.Final, rm, b.Fork(uint64(i)), cc, discount, plies-1)
		if rv > best {
			best = rv
		}
	}
	return score + discount*best, true
}

func TestNoLegalMoves(t *testing.T) {
	is := is.New(t)
	cells := make([]gem.Gem, 64)
	for i := range cells {
		cells[i] = gem.Unknown
	}
	b, err := board.FromCells(8, 8, cells, 0)
	is.NoErr(err)

	s := standardSolver(991)
	ev, err := s.SelectMove(context.Background(), b)
	is.True(ev == nil)
	is.True(errors.Is(err, ErrNoLegalMoves))
}

func TestOnlyMoveSelected(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"AAS",
		"CSS",
		"SAA")

	s := standardSolver(991)
	ev, err := s.SelectMove(context.Background(), b)
	is.NoErr(err)
	is.Equal(ev.Move, move.New(board.Cell{Row: 1, Col: 0}, board.Cell{Row: 2, Col: 0}))
	is.True(ev.Result != nil)
	is.Equal(ev.Score, ev.Rationale.Total())
}

func TestRankingMatchesReplay(t *testing.T) {
	is := is.New(t)
	st := twoMoveBoard(t)
	seed := int64(991)

	s := standardSolver(seed)
	evals, err := s.RankMoves(context.Background(), st)
	is.NoErr(err)

	moves := movegen.LegalMoves(st)
	is.Equal(len(evals), len(moves))

	// Recompute every candidate independently and pick the winner the
	// same way: strict improvement only, so the earliest of tied moves
	// stays on top.
	cc := equity.NewCombined(equity.StandardCalculators(equity.DefaultWeights(), nil)...)
	root := bag.Default(seed)
	expected := make(map[move.Move]float64)
	best := math.Inf(-1)
	var bestMove move.Move
	for i, m := range moves {
		v, _ := replayValue(t, st, m, root.Fork(uint64(i)), cc, DefaultDiscount, 1)
		expected[m] = v
		if v > best {
			best = v
			bestMove = m
		}
	}

	for _, ev := range evals {
		is.Equal(ev.Score, expected[ev.Move])
	}
	is.Equal(evals[0].Move, bestMove)
	is.Equal(evals[0].Score, best)
	for i := 1; i < len(evals); i++ {
		is.True(evals[i-1].Score >= evals[i].Score)
	}
}

func TestLookaheadMatchesReplay(t *testing.T) {
	is := is.New(t)
	st := twoMoveBoard(t)
	seed := int64(42)

	s := standardSolver(seed)
	s.SetPlies(2)
	s.SetDiscount(0.5)
	evals, err := s.RankMoves(context.Background(), st)
	is.NoErr(err)

	cc := equity.NewCombined(equity.StandardCalculators(equity.DefaultWeights(), nil)...)
	root := bag.Default(seed)
	moves := movegen.LegalMoves(st)
	expected := make(map[move.Move]float64)
	lookaheads := make(map[move.Move]bool)
	for i, m := range moves {
		v, la := replayValue(t, st, m, root.Fork(uint64(i)), cc, 0.5, 2)
		expected[m] = v
		lookaheads[m] = la
	}

	for _, ev := range evals {
		is.Equal(ev.Score, expected[ev.Move])
		is.Equal(ev.Score, ev.Rationale.Total())
		last := ev.Rationale[len(ev.Rationale)-1]
		is.Equal(last.Name == "lookahead", lookaheads[ev.Move])
	}
}

func TestDeterministicAcrossThreads(t *testing.T) {
	is := is.New(t)
	st := twoMoveBoard(t)

	one := standardSolver(7)
	one.SetThreads(1)
	many := standardSolver(7)
	many.SetThreads(8)

	evalsOne, err := one.RankMoves(context.Background(), st)
	is.NoErr(err)
	evalsMany, err := many.RankMoves(context.Background(), st)
	is.NoErr(err)

	is.Equal(len(evalsOne), len(evalsMany))
	for i := range evalsOne {
		is.Equal(evalsOne[i].Move, evalsMany[i].Move)
		is.Equal(evalsOne[i].Score, evalsMany[i].Score)
	}
}

func TestBudgetStillReturnsAMove(t *testing.T) {
	is := is.New(t)
	st := twoMoveBoard(t)

	s := standardSolver(3)
	s.SetTimeBudget(1 * time.Nanosecond)
	ev, err := s.SelectMove(context.Background(), st)
	is.NoErr(err)

	legal := make(map[move.Move]bool)
	for _, m := range movegen.LegalMoves(st) {
		legal[m] = true
	}
	is.True(legal[ev.Move])
	is.Equal(ev.Score, ev.Rationale.Total())
}

func TestCanceledContextFallsBackToFirstMove(t *testing.T) {
	is := is.New(t)
	st := twoMoveBoard(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := standardSolver(3)
	ev, err := s.SelectMove(ctx, st)
	is.NoErr(err)
	is.Equal(ev.Move, movegen.LegalMoves(st)[0])
}

func TestNodeAccounting(t *testing.T) {
	is := is.New(t)
	st := twoMoveBoard(t)

	s := standardSolver(5)
	_, err := s.RankMoves(context.Background(), st)
	is.NoErr(err)
	// One ply, two candidates: one resolved cascade each.
	is.Equal(s.Nodes(), uint64(2))
}
