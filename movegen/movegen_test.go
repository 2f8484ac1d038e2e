package movegen

import (
	"testing"

	"github.com/matryer/is"

	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/gem"
	"github.com/trovebot/trove/matcher"
	"github.com/trovebot/trove/move"
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

// The 3x3 fixture admits exactly one legal swap: the citrine at r1c0
// with the sapphire below it, completing the sapphire run across
// row 1.
func TestSingleLegalMove(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"AAS",
		"CSS",
		"SAA",
	)
	moves := LegalMoves(b)
	is.Equal(len(moves), 1)
	is.Equal(moves[0], move.New(board.Cell{Row: 1, Col: 0}, board.Cell{Row: 2, Col: 0}))
	is.True(moves[0].Vertical())
	is.Equal(Mobility(b), 1)
}

func TestEnumerationOrder(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"RRSR",
		"TEAE",
		"SSAS",
		"ETRT",
	)
	moves := LegalMoves(b)
	is.Equal(len(moves), 2)
	is.Equal(moves[0], move.New(board.Cell{Row: 0, Col: 2}, board.Cell{Row: 0, Col: 3}))
	is.Equal(moves[1], move.New(board.Cell{Row: 2, Col: 2}, board.Cell{Row: 2, Col: 3}))
	is.Equal(Mobility(b), 2)
}

func TestEveryLegalMoveProducesAMatch(t *testing.T) {
	is := is.New(t)
	boards := []*board.State{
		mustBoard(t, "AAS", "CSS", "SAA"),
		mustBoard(t, "RRSR", "TEAE", "SSAS", "ETRT"),
		mustBoard(t, "RSRS", "SRSR", "RSRS", "SRSR"),
	}
	for _, b := range boards {
		for _, m := range LegalMoves(b) {
			sw, err := b.WithSwap(m.From, m.To)
			is.NoErr(err)
			is.True(matcher.HasMatches(sw))
		}
	}
}

func TestAllUnknownBoardHasNoMoves(t *testing.T) {
	is := is.New(t)
	cells := make([]gem.Gem, 64)
	for i := range cells {
		cells[i] = gem.Unknown
	}
	b, err := board.FromCells(8, 8, cells, 0)
	is.NoErr(err)
	is.Equal(len(LegalMoves(b)), 0)
	is.Equal(Mobility(b), 0)
}

func TestIdenticalGemSwapExcluded(t *testing.T) {
	is := is.New(t)
	// r0c0 and r0c1 hold the same gem; that swap must never appear
	// even though the board has legal moves elsewhere.
	b := mustBoard(t,
		"AAS",
		"CSS",
		"SAA",
	)
	for _, m := range LegalMoves(b) {
		identical := b.GemAt(m.From.Row, m.From.Col) == b.GemAt(m.To.Row, m.To.Col)
		is.True(!identical)
	}
}

func TestEmptyCellsAreNotSwappable(t *testing.T) {
	is := is.New(t)
	cells := []gem.Gem{
		gem.Ruby, gem.Empty, gem.Ruby,
		gem.Sapphire, gem.Ruby, gem.Sapphire,
		gem.Ruby, gem.Sapphire, gem.Ruby,
	}
	b, err := board.FromCells(3, 3, cells, 0)
	is.NoErr(err)
	for _, m := range LegalMoves(b) {
		is.True(b.GemAt(m.From.Row, m.From.Col) != gem.Empty)
		is.True(b.GemAt(m.To.Row, m.To.Col) != gem.Empty)
	}
}

func TestDeadlockedBoardHasNoMoves(t *testing.T) {
	is := is.New(t)
	// Rotating latin square: every swap yields runs of at most two.
	b := mustBoard(t,
		"RSE",
		"SER",
		"ERS",
	)
	is.Equal(len(LegalMoves(b)), 0)
	is.Equal(Mobility(b), 0)
}
