// Package board implements the immutable grid the solver core operates
// on. Every transformation returns a new State; nothing here mutates in
// place, which is what makes move simulations freely parallelizable.
package board

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash"

	"github.com/trovebot/trove/gem"
)

// MinDim is the smallest legal board dimension; anything narrower
// cannot hold a run of three.
const MinDim = 3

var (
	ErrInvalidBoard = errors.New("invalid board")
	ErrOutOfBounds  = errors.New("cell out of bounds")
	ErrIllegalSwap  = errors.New("illegal swap")
)

// State is a rectangular grid of gems plus a generation counter. The
// generation increases monotonically as moves and cascade steps derive
// new boards from old ones; refill randomness is keyed off it so that
// any board can be replayed exactly from (seed, generation).
type State struct {
	rows  int
	cols  int
	cells []gem.Gem // row-major
	gen   uint64
}

// New builds a State from a grid of gem rows, at generation 0. This is
// the entry point for the vision layer: the grid may contain Unknown
// cells for anything it could not classify.
func New(grid [][]gem.Gem) (*State, error) {
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidBoard)
	}
	rows := len(grid)
	cols := len(grid[0])
	for i, row := range grid {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d",
				ErrInvalidBoard, i, len(row), cols)
		}
	}
	if rows < MinDim || cols < MinDim {
		return nil, fmt.Errorf("%w: %dx%d is smaller than %dx%d",
			ErrInvalidBoard, rows, cols, MinDim, MinDim)
	}
	cells := make([]gem.Gem, 0, rows*cols)
	for _, row := range grid {
		cells = append(cells, row...)
	}
	return FromCells(rows, cols, cells, 0)
}

// FromCells builds a State from a row-major cell slice. The slice is
// copied, never retained.
func FromCells(rows, cols int, cells []gem.Gem, generation uint64) (*State, error) {
	if rows < MinDim || cols < MinDim {
		return nil, fmt.Errorf("%w: %dx%d is smaller than %dx%d",
			ErrInvalidBoard, rows, cols, MinDim, MinDim)
	}
	if len(cells) != rows*cols {
		return nil, fmt.Errorf("%w: %d cells for a %dx%d grid",
			ErrInvalidBoard, len(cells), rows, cols)
	}
	for i, g := range cells {
		if !g.Valid() {
			return nil, fmt.Errorf("%w: undefined gem value %d at index %d",
				ErrInvalidBoard, uint8(g), i)
		}
	}
	s := &State{
		rows:  rows,
		cols:  cols,
		cells: make([]gem.Gem, len(cells)),
		gen:   generation,
	}
	copy(s.cells, cells)
	return s, nil
}

func (s *State) Rows() int { return s.rows }
func (s *State) Cols() int { return s.cols }

// Dims returns (rows, cols).
func (s *State) Dims() (int, int) { return s.rows, s.cols }

// Generation returns the derivation counter for this board.
func (s *State) Generation() uint64 { return s.gen }

// WithGeneration returns a copy of this board at a different
// generation. Grid contents are unchanged.
func (s *State) WithGeneration(gen uint64) *State {
	n := s.clone()
	n.gen = gen
	return n
}

// At returns the gem at a cell, or ErrOutOfBounds.
func (s *State) At(c Cell) (gem.Gem, error) {
	if !s.InBounds(c) {
		return gem.Empty, fmt.Errorf("%w: %v on a %dx%d board",
			ErrOutOfBounds, c, s.rows, s.cols)
	}
	return s.cells[c.Row*s.cols+c.Col], nil
}

// GemAt is the unchecked fast path for callers already iterating in
// bounds.
func (s *State) GemAt(row, col int) gem.Gem {
	return s.cells[row*s.cols+col]
}

// InBounds reports whether a cell is on the board.
func (s *State) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < s.rows && c.Col >= 0 && c.Col < s.cols
}

// WithSwap returns a new State with the gems at the two cells
// exchanged and the generation advanced by one. The receiver is
// untouched. Both cells must be in bounds and orthogonally adjacent;
// legality in the match-producing sense is the move generator's
// concern, not this method's.
func (s *State) WithSwap(a, b Cell) (*State, error) {
	if !s.InBounds(a) {
		return nil, fmt.Errorf("%w: %v on a %dx%d board", ErrOutOfBounds, a, s.rows, s.cols)
	}
	if !s.InBounds(b) {
		return nil, fmt.Errorf("%w: %v on a %dx%d board", ErrOutOfBounds, b, s.rows, s.cols)
	}
	if !a.AdjacentTo(b) {
		return nil, fmt.Errorf("%w: %v and %v are not adjacent", ErrIllegalSwap, a, b)
	}
	n := s.clone()
	ai, bi := a.Row*s.cols+a.Col, b.Row*s.cols+b.Col
	n.cells[ai], n.cells[bi] = n.cells[bi], n.cells[ai]
	n.gen = s.gen + 1
	return n, nil
}

// Equal is cell-wise grid equality. Generation is deliberately not
// part of board identity; two boards with the same cells are the same
// position.
func (s *State) Equal(o *State) bool {
	if s.rows != o.rows || s.cols != o.cols {
		return false
	}
	for i := range s.cells {
		if s.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// CloneCells returns a row-major copy of the grid, for callers that
// need a scratch buffer to build a derived board.
func (s *State) CloneCells() []gem.Gem {
	c := make([]gem.Gem, len(s.cells))
	copy(c, s.cells)
	return c
}

// Fingerprint hashes the grid (dimensions included, generation
// excluded) for cache keys and log correlation.
func (s *State) Fingerprint() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, len(s.cells)+2)
	buf = append(buf, byte(s.rows), byte(s.cols))
	for _, g := range s.cells {
		buf = append(buf, byte(g))
	}
	d.Write(buf)
	return d.Sum64()
}

func (s *State) clone() *State {
	n := &State{
		rows:  s.rows,
		cols:  s.cols,
		cells: make([]gem.Gem, len(s.cells)),
		gen:   s.gen,
	}
	copy(n.cells, s.cells)
	return n
}
