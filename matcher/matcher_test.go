package matcher

import (
	"testing"

	"github.com/matryer/is"

	"github.com/trovebot/trove/board"
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

func TestNoMatchesOnStableBoard(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"RSR",
		"SRS",
		"RSR",
	)
	is.Equal(len(FindMatches(b)), 0)
	is.True(!HasMatches(b))
}

func TestHorizontalRun(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"RRRS",
		"SERT",
		"ERSE",
		"TSET",
	)
	ms := FindMatches(b)
	is.Equal(len(ms), 1)
	is.Equal(ms[0].Gem, gem.Ruby)
	is.Equal(ms[0].Orientation, Horizontal)
	is.Equal(ms[0].Cells, []board.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}})
	is.True(HasMatches(b))
}

func TestMaximalRunIsOneMatch(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"RRRRR",
		"SETSE",
		"ETSET",
	)
	ms := FindMatches(b)
	is.Equal(len(ms), 1)
	is.Equal(ms[0].Len(), 5)
}

func TestVerticalRun(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"RSE",
		"RES",
		"RSE",
	)
	ms := FindMatches(b)
	is.Equal(len(ms), 1)
	is.Equal(ms[0].Orientation, Vertical)
	is.Equal(ms[0].Cells, []board.Cell{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 2, Col: 0}})
}

func TestOverlappingRunsShareCells(t *testing.T) {
	is := is.New(t)
	// L shape of rubies through (0,0).
	b := mustBoard(t,
		"RRRS",
		"RSET",
		"RETS",
		"SSET",
	)
	ms := FindMatches(b)
	is.Equal(len(ms), 2)
	// Sorted by first cell, horizontal before vertical at a shared origin.
	is.Equal(ms[0].Orientation, Horizontal)
	is.Equal(ms[1].Orientation, Vertical)
	is.Equal(ms[0].First(), board.Cell{Row: 0, Col: 0})
	is.Equal(ms[1].First(), board.Cell{Row: 0, Col: 0})
}

func TestUnknownAndEmptyNeverMatch(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"???",
		"...",
		"???",
	)
	is.Equal(len(FindMatches(b)), 0)
	is.True(!HasMatches(b))
}

func TestDeterministicOrdering(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"RRRSE",
		"ETSET",
		"SSSRE",
		"ETRSE",
		"TESRT",
	)
	ms := FindMatches(b)
	is.Equal(len(ms), 2)
	is.Equal(ms[0].First(), board.Cell{Row: 0, Col: 0})
	is.Equal(ms[0].Gem, gem.Ruby)
	is.Equal(ms[1].First(), board.Cell{Row: 2, Col: 0})
	is.Equal(ms[1].Gem, gem.Sapphire)
}

// The 3x3 fixture with a single match-creating swap: exchanging the
// citrine at r1c0 with the sapphire below it completes a sapphire run
// across row 1.
func TestSwapCreatesRun(t *testing.T) {
	is := is.New(t)
	b := mustBoard(t,
		"AAS",
		"CSS",
		"SAA",
	)
	is.Equal(len(FindMatches(b)), 0)

	swapped, err := b.WithSwap(board.Cell{Row: 1, Col: 0}, board.Cell{Row: 2, Col: 0})
	is.NoErr(err)
	ms := FindMatches(swapped)
	is.Equal(len(ms), 1)
	is.Equal(ms[0].Gem, gem.Sapphire)
	is.Equal(ms[0].Orientation, Horizontal)
	is.Equal(ms[0].Cells, []board.Cell{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}})
}
