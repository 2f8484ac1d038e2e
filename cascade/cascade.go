// Package cascade resolves the chain reaction a board undergoes after
// matches appear: remove, drop, refill, repeat until stable. The
// resolver is a pure state machine over immutable boards — given the
// same bag and starting board it always produces the same Result,
// which is what makes search reproducible and replays exact.
package cascade

import (
	"errors"
	"fmt"
	"sort"

	"github.com/trovebot/trove/bag"
	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/gem"
	"github.com/trovebot/trove/matcher"
)

// DefaultMaxDepth is the default ceiling on cascade steps per resolve
// call. Generous: organic cascades on small boards run a handful of
// steps; anything approaching the ceiling means the refill source is
// misbehaving.
const DefaultMaxDepth = 64

var (
	ErrDepthExceeded = errors.New("cascade depth exceeded")
	ErrBadDraw       = errors.New("refill drew an unmatchable gem")
)

// DepthExceededError reports a resolve call that was still producing
// matches at its depth ceiling. It carries every step resolved up to
// that point so the pathology can be diagnosed; it is never silently
// truncated into a "result".
type DepthExceededError struct {
	Limit int
	Steps []Step
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("cascade depth exceeded: still unstable after %d steps", e.Limit)
}

func (e *DepthExceededError) Unwrap() error {
	return ErrDepthExceeded
}

// A Fall records one gem's gravity displacement within a step.
type Fall struct {
	From board.Cell
	To   board.Cell
	Gem  gem.Gem
}

// A Spawn records one refilled cell: where, what, and the raw bounded
// PCG draw that produced it.
type Spawn struct {
	Cell board.Cell
	Gem  gem.Gem
	Draw uint32
}

// A Step is one full resolve cycle: the matches found, the
// deduplicated cells removed, the gravity displacements, and the
// refill spawns, along with the points the step scored.
type Step struct {
	Index      int
	Matches    []matcher.Match
	Removed    []board.Cell
	Falls      []Fall
	Spawns     []Spawn
	Multiplier float64
	Points     float64
}

// A Result is a finished resolve call: the stable terminal board, the
// ordered steps it took to get there, and the cumulative raw score.
type Result struct {
	Final *board.State
	Steps []Step
	Score float64
}

// A Resolver drives boards to stability. It holds no per-call state
// and is safe to reuse across calls; it is not safe to share across
// goroutines only insofar as callers should fork the bag per
// simulation stream (see bag.Fork).
type Resolver struct {
	bag      *bag.Bag
	curve    Curve
	maxDepth int
}

// NewResolver builds a resolver refilling from b. A zero curve means
// DefaultCurve; maxDepth < 1 means DefaultMaxDepth.
func NewResolver(b *bag.Bag, curve Curve, maxDepth int) *Resolver {
	if curve == (Curve{}) {
		curve = DefaultCurve()
	}
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	return &Resolver{bag: b, curve: curve, maxDepth: maxDepth}
}

// Curve returns the resolver's chain multiplier curve.
func (r *Resolver) Curve() Curve { return r.curve }

// Resolve runs the state machine to stability. A board that is
// already stable comes back unchanged with zero steps and zero score.
// The input is never modified.
func (r *Resolver) Resolve(s *board.State) (*Result, error) {
	cur := s
	var steps []Step
	total := 0.0
	for {
		ms := matcher.FindMatches(cur)
		if len(ms) == 0 {
			return &Result{Final: cur, Steps: steps, Score: total}, nil
		}
		if len(steps) >= r.maxDepth {
			return nil, &DepthExceededError{Limit: r.maxDepth, Steps: steps}
		}
		step, next, err := r.step(cur, len(steps), ms)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
		total += step.Points
		cur = next
	}
}

// step performs one remove/gravity/refill cycle, returning the step
// record and the derived board at the next generation.
func (r *Resolver) step(cur *board.State, idx int, ms []matcher.Match) (Step, *board.State, error) {
	rows, cols := cur.Dims()
	step := Step{Index: idx, Matches: ms}

	// Union of match cells; overlapping runs share cells, so dedup
	// here, and sort row-major for reproducible logs.
	marked := make([]bool, rows*cols)
	for _, m := range ms {
		for _, c := range m.Cells {
			i := c.Row*cols + c.Col
			if !marked[i] {
				marked[i] = true
				step.Removed = append(step.Removed, c)
			}
		}
	}
	sort.Slice(step.Removed, func(i, j int) bool {
		return step.Removed[i].Less(step.Removed[j])
	})

	scratch := cur.CloneCells()
	for _, c := range step.Removed {
		scratch[c.Row*cols+c.Col] = gem.Empty
	}

	// Gravity: per column, surviving gems fall to the bottom keeping
	// their relative order; empties end up at the column top.
	for col := 0; col < cols; col++ {
		write := rows - 1
		for row := rows - 1; row >= 0; row-- {
			g := scratch[row*cols+col]
			if g == gem.Empty {
				continue
			}
			if row != write {
				scratch[write*cols+col] = g
				scratch[row*cols+col] = gem.Empty
				step.Falls = append(step.Falls, Fall{
					From: board.Cell{Row: row, Col: col},
					To:   board.Cell{Row: write, Col: col},
					Gem:  g,
				})
			}
			write--
		}
	}

	// Refill: column-major, each column's empty run filled bottom-up.
	// The draw stream is keyed off the pre-step generation, so this
	// exact fill can be replayed from (seed, stream, generation).
	draws := r.bag.Draws(cur.Generation())
	for col := 0; col < cols; col++ {
		bottom := -1
		for row := 0; row < rows; row++ {
			if scratch[row*cols+col] != gem.Empty {
				break
			}
			bottom = row
		}
		for row := bottom; row >= 0; row-- {
			cell := board.Cell{Row: row, Col: col}
			g, raw := draws.Draw()
			if !g.Matchable() {
				return Step{}, nil, fmt.Errorf("%w: drew %v for %v", ErrBadDraw, g, cell)
			}
			scratch[row*cols+col] = g
			step.Spawns = append(step.Spawns, Spawn{Cell: cell, Gem: g, Draw: raw})
		}
	}

	step.Multiplier = r.curve.Multiplier(idx)
	step.Points = float64(len(step.Removed)) * step.Multiplier

	next, err := board.FromCells(rows, cols, scratch, cur.Generation()+1)
	if err != nil {
		return Step{}, nil, err
	}
	return step, next, nil
}
