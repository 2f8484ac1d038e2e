// Package movegen enumerates legal swaps: adjacent cell pairs whose
// exchange produces at least one match. Enumeration order is fixed —
// row-major by first cell, right neighbor before down neighbor — so
// everything downstream (tie-breaking, logs, replays) is reproducible.
package movegen

import (
	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/gem"
	"github.com/trovebot/trove/matcher"
	"github.com/trovebot/trove/move"
)

// LegalMoves returns every legal swap on the board, in canonical
// enumeration order. An empty result is a valid terminal condition
// (deadlock), not an error.
func LegalMoves(s *board.State) []move.Move {
	var moves []move.Move
	forEachLegal(s, func(m move.Move) {
		moves = append(moves, m)
	})
	return moves
}

// Mobility counts legal swaps without materializing them.
func Mobility(s *board.State) int {
	n := 0
	forEachLegal(s, func(move.Move) {
		n++
	})
	return n
}

// forEachLegal visits each unordered adjacent pair exactly once, in
// canonical orientation. Pairs touching an Empty cell are skipped
// outright (holes only exist mid-cascade and are not swappable), and
// identical-gem pairs are skipped as no-op-equivalent: exchanging
// equal values cannot create a run.
func forEachLegal(s *board.State, fn func(move.Move)) {
	rows, cols := s.Dims()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			a := s.GemAt(r, c)
			if a == gem.Empty {
				continue
			}
			from := board.Cell{Row: r, Col: c}
			if c+1 < cols {
				if b := s.GemAt(r, c+1); b != gem.Empty && b != a {
					to := board.Cell{Row: r, Col: c + 1}
					if swapProducesMatch(s, from, to) {
						fn(move.New(from, to))
					}
				}
			}
			if r+1 < rows {
				if b := s.GemAt(r+1, c); b != gem.Empty && b != a {
					to := board.Cell{Row: r + 1, Col: c}
					if swapProducesMatch(s, from, to) {
						fn(move.New(from, to))
					}
				}
			}
		}
	}
}

func swapProducesMatch(s *board.State, a, b board.Cell) bool {
	sw, err := s.WithSwap(a, b)
	if err != nil {
		// enumeration only proposes in-bounds adjacent pairs
		return false
	}
	return matcher.HasMatches(sw)
}
