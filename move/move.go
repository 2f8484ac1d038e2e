// Package move defines the swap move emitted by the solver and handed
// to a control collaborator for execution.
package move

import (
	"fmt"

	"github.com/trovebot/trove/board"
)

// A Move is an ordered pair of orthogonally adjacent cells proposed
// for a swap. The move generator emits moves in canonical form: From
// is the top/left cell and To its right or down neighbor.
type Move struct {
	From board.Cell
	To   board.Cell
}

func New(from, to board.Cell) Move {
	return Move{From: from, To: to}
}

// Vertical reports whether the swap runs along a column.
func (m Move) Vertical() bool {
	return m.From.Col == m.To.Col
}

// Canonical returns the move with its cells in row-major order. Swaps
// are symmetric, so this is the form used for comparisons and logs.
func (m Move) Canonical() Move {
	if m.To.Less(m.From) {
		return Move{From: m.To, To: m.From}
	}
	return m
}

func (m Move) Equal(o Move) bool {
	mc, oc := m.Canonical(), o.Canonical()
	return mc.From == oc.From && mc.To == oc.To
}

func (m Move) String() string {
	return fmt.Sprintf("swap %v<->%v", m.From, m.To)
}

// ShortDescription is the compact form used in move listings.
func (m Move) ShortDescription() string {
	return fmt.Sprintf("%v<->%v", m.From, m.To)
}
