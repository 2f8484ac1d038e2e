package automatic

import (
	"context"
	"errors"
	"fmt"

	"github.com/trovebot/trove/bag"
	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/cache"
	"github.com/trovebot/trove/cascade"
	"github.com/trovebot/trove/config"
	"github.com/trovebot/trove/equity"
	"github.com/trovebot/trove/gem"
	"github.com/trovebot/trove/movegen"
	"github.com/trovebot/trove/search"
)

const (
	// DefaultRows and DefaultCols are the dimensions of dealt session
	// boards.
	DefaultRows = 8
	DefaultCols = 8
	// DefaultMoveCap ends sessions that refuse to deadlock on their
	// own; match-3 boards with six kinds can stay live for a very long
	// time.
	DefaultMoveCap = 200

	// dealFork keeps the dealing draws on a stream no candidate-move
	// fork will ever reuse; move forks are indexed by candidate number
	// and never get near 2^32.
	dealFork = 1 << 32

	// With six kinds at most two are forbidden per cell, so a run of
	// failed draws this long means the bag cannot deal a stable board.
	maxDealTries = 256
)

// A SessionRunner plays out one self-play session at a time: deal a
// stable board, repeatedly apply the solver's best swap, stop on
// deadlock or at the move cap. Chosen moves are applied with the
// session bag itself, not an evaluation fork, so the whole session
// line replays from its seed alone.
type SessionRunner struct {
	cfg      *config.Config
	calcs    []equity.Calculator
	curve    cascade.Curve
	solver   *search.Solver
	resolver *cascade.Resolver

	bag     *bag.Bag
	state   *board.State
	id      string
	seed    int64
	moveNum int
	score   float64
	over    bool
	moveCap int

	logchan chan string
}

// NewSessionRunner builds a runner from cfg. Runners sharing a
// mobility table may run concurrently; the table is the only shared
// state between them. A nil table disables mobility caching.
func NewSessionRunner(logchan chan string, cfg *config.Config, table *cache.MobilityTable) (*SessionRunner, error) {
	curve, err := cfg.Curve()
	if err != nil {
		return nil, err
	}
	return &SessionRunner{
		cfg:     cfg,
		calcs:   equity.StandardCalculators(cfg.Weights(), table),
		curve:   curve,
		moveCap: DefaultMoveCap,
		logchan: logchan,
	}, nil
}

// SetMoveCap bounds session length; values below 1 restore the
// default.
func (r *SessionRunner) SetMoveCap(n int) {
	if n < 1 {
		n = DefaultMoveCap
	}
	r.moveCap = n
}

// Reset starts a fresh session: new bag from the seed, new stable
// board, counters zeroed.
func (r *SessionRunner) Reset(seed int64, id string) error {
	r.bag = bag.Default(seed)
	r.resolver = cascade.NewResolver(r.bag, r.curve, r.cfg.MaxCascadeDepth())
	r.solver = search.NewSolver(r.bag, r.calcs)
	r.solver.SetPlies(r.cfg.SearchDepth())
	r.solver.SetDiscount(r.cfg.Discount())
	r.solver.SetCurve(r.curve)
	r.solver.SetMaxCascadeDepth(r.cfg.MaxCascadeDepth())
	r.solver.SetTimeBudget(r.cfg.TimeBudget())
	// Sessions parallelize across runners, not within one.
	r.solver.SetThreads(1)

	st, err := DealStableBoard(r.bag, DefaultRows, DefaultCols)
	if err != nil {
		return err
	}
	r.state = st
	r.id = id
	r.seed = seed
	r.moveNum = 0
	r.score = 0
	r.over = false
	return nil
}

func (r *SessionRunner) ID() string          { return r.id }
func (r *SessionRunner) Seed() int64         { return r.seed }
func (r *SessionRunner) Moves() int          { return r.moveNum }
func (r *SessionRunner) Score() float64      { return r.score }
func (r *SessionRunner) State() *board.State { return r.state }

// Playing reports whether the session can still take a turn.
func (r *SessionRunner) Playing() bool { return !r.over }

// PlayBestTurn solves the current position and applies the top swap.
// A deadlocked position ends the session without error.
func (r *SessionRunner) PlayBestTurn(ctx context.Context) error {
	if r.over {
		return nil
	}
	ev, err := r.solver.SelectMove(ctx, r.state)
	if err != nil {
		if errors.Is(err, search.ErrNoLegalMoves) {
			r.over = true
			return nil
		}
		return err
	}
	swapped, err := r.state.WithSwap(ev.Move.From, ev.Move.To)
	if err != nil {
		return err
	}
	res, err := r.resolver.Resolve(swapped)
	if err != nil {
		return err
	}
	r.state = res.Final
	r.score += res.Score
	r.moveNum++
	if r.logchan != nil {
		// points is what the applied cascade actually scored; equity is
		// what the solver predicted for the move before applying it.
		r.logchan <- fmt.Sprintf("%v,%v,%v,%.2f,%.2f,%v,%.3f,%v\n",
			r.id, r.moveNum, ev.Move.ShortDescription(),
			res.Score, r.score, len(res.Steps), ev.Score,
			movegen.Mobility(r.state))
	}
	if r.moveCap > 0 && r.moveNum >= r.moveCap {
		r.over = true
	}
	return nil
}

func (r *SessionRunner) playFull(ctx context.Context) error {
	for r.Playing() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.PlayBestTurn(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DealStableBoard fills a rows x cols grid from a dedicated dealing
// stream, redrawing any cell that would complete a run with its two
// left or two upper neighbors. The result has matches nowhere, so
// session scoring starts from the first swap rather than a free
// opening cascade.
func DealStableBoard(b *bag.Bag, rows, cols int) (*board.State, error) {
	draws := b.Fork(dealFork).Draws(0)
	cells := make([]gem.Gem, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			placed := false
			for try := 0; try < maxDealTries; try++ {
				g, _ := draws.Draw()
				if c >= 2 && cells[r*cols+c-1] == g && cells[r*cols+c-2] == g {
					continue
				}
				if r >= 2 && cells[(r-1)*cols+c] == g && cells[(r-2)*cols+c] == g {
					continue
				}
				cells[r*cols+c] = g
				placed = true
				break
			}
			if !placed {
				return nil, fmt.Errorf("could not deal a stable %dx%d board from %d gem kinds",
					rows, cols, len(b.Kinds()))
			}
		}
	}
	return board.FromCells(rows, cols, cells, 0)
}
