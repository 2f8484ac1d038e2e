// Package matcher finds runs of three or more identical gems. It only
// reports; removing matched cells and resolving the fallout is the
// cascade package's job.
package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/gem"
)

type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Horizontal {
		return "(horizontal)"
	} else if o == Vertical {
		return "(vertical)"
	}
	return "none"
}

// A Match is one maximal run of at least MinRunLength identical
// matchable gems along a single row or column. Overlapping runs (an L
// or T shape) are reported as separate Matches that share cells.
type Match struct {
	Cells       []board.Cell // in scan order: left-to-right or top-to-bottom
	Gem         gem.Gem
	Orientation Orientation
}

// MinRunLength is the shortest run that counts as a match.
const MinRunLength = 3

func (m Match) Len() int {
	return len(m.Cells)
}

// First returns the top-left cell of the run.
func (m Match) First() board.Cell {
	return m.Cells[0]
}

func (m Match) String() string {
	var cs []string
	for _, c := range m.Cells {
		cs = append(cs, c.String())
	}
	return fmt.Sprintf("<match %v %s [%s]>", m.Gem, m.Orientation, strings.Join(cs, " "))
}

// FindMatches scans every row and every column independently for
// maximal runs. Results are sorted by (first row, first col,
// orientation) so downstream logging and scoring are reproducible.
// Cost is linear in the grid size.
func FindMatches(s *board.State) []Match {
	rows, cols := s.Dims()
	var matches []Match

	for r := 0; r < rows; r++ {
		runStart := 0
		for c := 1; c <= cols; c++ {
			if c < cols && s.GemAt(r, c) == s.GemAt(r, runStart) {
				continue
			}
			if length := c - runStart; length >= MinRunLength && s.GemAt(r, runStart).Matchable() {
				m := Match{Gem: s.GemAt(r, runStart), Orientation: Horizontal}
				for i := runStart; i < c; i++ {
					m.Cells = append(m.Cells, board.Cell{Row: r, Col: i})
				}
				matches = append(matches, m)
			}
			runStart = c
		}
	}

	for c := 0; c < cols; c++ {
		runStart := 0
		for r := 1; r <= rows; r++ {
			if r < rows && s.GemAt(r, c) == s.GemAt(runStart, c) {
				continue
			}
			if length := r - runStart; length >= MinRunLength && s.GemAt(runStart, c).Matchable() {
				m := Match{Gem: s.GemAt(runStart, c), Orientation: Vertical}
				for i := runStart; i < r; i++ {
					m.Cells = append(m.Cells, board.Cell{Row: i, Col: c})
				}
				matches = append(matches, m)
			}
			runStart = r
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		fi, fj := matches[i].First(), matches[j].First()
		if fi != fj {
			return fi.Less(fj)
		}
		return matches[i].Orientation < matches[j].Orientation
	})
	return matches
}

// HasMatches is the allocation-free predicate the move generator uses
// on candidate swaps. It returns true as soon as any window of three
// identical matchable gems is found.
func HasMatches(s *board.State) bool {
	rows, cols := s.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c+2 < cols; c++ {
			g := s.GemAt(r, c)
			if g.Matchable() && s.GemAt(r, c+1) == g && s.GemAt(r, c+2) == g {
				return true
			}
		}
	}
	for c := 0; c < cols; c++ {
		for r := 0; r+2 < rows; r++ {
			g := s.GemAt(r, c)
			if g.Matchable() && s.GemAt(r+1, c) == g && s.GemAt(r+2, c) == g {
				return true
			}
		}
	}
	return false
}
