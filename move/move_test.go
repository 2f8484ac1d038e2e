package move

import (
	"testing"

	"github.com/matryer/is"

	"github.com/trovebot/trove/board"
)

func TestCanonical(t *testing.T) {
	is := is.New(t)
	m := New(board.Cell{Row: 2, Col: 2}, board.Cell{Row: 1, Col: 2})
	c := m.Canonical()
	is.Equal(c.From, board.Cell{Row: 1, Col: 2})
	is.Equal(c.To, board.Cell{Row: 2, Col: 2})
	is.True(m.Equal(c))
}

func TestVertical(t *testing.T) {
	is := is.New(t)
	is.True(New(board.Cell{Row: 1, Col: 2}, board.Cell{Row: 2, Col: 2}).Vertical())
	is.True(!New(board.Cell{Row: 1, Col: 2}, board.Cell{Row: 1, Col: 3}).Vertical())
}

func TestShortDescription(t *testing.T) {
	is := is.New(t)
	m := New(board.Cell{Row: 1, Col: 2}, board.Cell{Row: 2, Col: 2})
	is.Equal(m.ShortDescription(), "r1c2<->r2c2")
}
