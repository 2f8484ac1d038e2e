package board

import "fmt"

// A Cell is a (row, col) coordinate on a board. Row 0 is the top row.
type Cell struct {
	Row int
	Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("r%dc%d", c.Row, c.Col)
}

// AdjacentTo is true if the two cells are orthogonal neighbors
// (Manhattan distance of exactly 1).
func (c Cell) AdjacentTo(o Cell) bool {
	dr := c.Row - o.Row
	if dr < 0 {
		dr = -dr
	}
	dc := c.Col - o.Col
	if dc < 0 {
		dc = -dc
	}
	return dr+dc == 1
}

// Less orders cells row-major; used for deterministic listings.
func (c Cell) Less(o Cell) bool {
	if c.Row != o.Row {
		return c.Row < o.Row
	}
	return c.Col < o.Col
}
