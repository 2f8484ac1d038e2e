// Package search picks the best swap for a position. Every legal move
// is played out through its full cascade and valued by an ordered set
// of equity calculators; candidates are evaluated in parallel on a
// worker pool, each from its own forked bag stream, so the ranking is
// identical regardless of thread count or scheduling.
package search

import (
	"context"
	"errors"
	"math"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/trovebot/trove/bag"
	"github.com/trovebot/trove/board"
	"github.com/trovebot/trove/cascade"
	"github.com/trovebot/trove/equity"
	"github.com/trovebot/trove/move"
	"github.com/trovebot/trove/movegen"
)

// ErrNoLegalMoves reports a position with no legal swap at all. It is
// a terminal outcome rather than a failure; callers branch on it with
// errors.Is.
var ErrNoLegalMoves = errors.New("no legal moves")

// DefaultDiscount is the per-ply weight applied to lookahead value.
const DefaultDiscount = 0.5

// An Evaluation is one fully valued candidate: the swap, the cascade
// it sets off, the equity score, and the rationale behind it. The
// rationale terms always sum exactly to Score.
type Evaluation struct {
	Move      move.Move
	Result    *cascade.Result
	Score     float64
	Rationale equity.Rationale
}

// Solver ranks the legal swaps of a position. It is cheap to keep
// around between calls but a single Solver should not run two searches
// at once; sessions that want concurrent searches use one Solver each.
type Solver struct {
	bag      *bag.Bag
	combined *equity.Combined

	plies        int
	discount     float64
	timeBudget   time.Duration
	threads      int
	curve        cascade.Curve
	cascadeDepth int

	nodes atomic.Uint64
}

// NewSolver builds a solver drawing refills from b and valuing results
// with the given ordered calculator list. Defaults: one ply, no time
// budget, default chain curve, one thread per CPU.
func NewSolver(b *bag.Bag, calculators []equity.Calculator) *Solver {
	return &Solver{
		bag:      b,
		combined: equity.NewCombined(calculators...),
		plies:    1,
		discount: DefaultDiscount,
		threads:  max(1, runtime.NumCPU()),
		curve:    cascade.DefaultCurve(),
	}
}

// SetPlies sets the search depth. One ply values each move by its own
// cascade only; values below 1 clamp to 1.
func (s *Solver) SetPlies(plies int) {
	if plies < 1 {
		plies = 1
	}
	s.plies = plies
}

func (s *Solver) Plies() int { return s.plies }

// SetTimeBudget bounds a whole ranking call. Zero means unbounded.
// The budget is only consulted between evaluations; a cascade in
// flight always resolves in full.
func (s *Solver) SetTimeBudget(d time.Duration) {
	if d < 0 {
		d = 0
	}
	s.timeBudget = d
}

// SetDiscount sets the per-ply weight applied to the best reply's
// value when plies > 1.
func (s *Solver) SetDiscount(d float64) { s.discount = d }

func (s *Solver) SetThreads(threads int) {
	if threads < 1 {
		threads = max(1, runtime.NumCPU())
	}
	s.threads = threads
}

func (s *Solver) Threads() int { return s.threads }

// SetCurve sets the chain multiplier curve used when resolving
// candidate cascades.
func (s *Solver) SetCurve(c cascade.Curve) { s.curve = c }

// SetMaxCascadeDepth caps cascade steps per resolve; values below 1
// restore the resolver default.
func (s *Solver) SetMaxCascadeDepth(d int) { s.cascadeDepth = d }

// Calculators returns the solver's ordered calculator list.
func (s *Solver) Calculators() []equity.Calculator { return s.combined.Calculators() }

// Bag returns the bag candidate evaluations fork from.
func (s *Solver) Bag() *bag.Bag { return s.bag }

// Nodes reports how many cascades the last ranking call resolved.
func (s *Solver) Nodes() uint64 { return s.nodes.Load() }

// SelectMove ranks every legal swap of st and returns the best one.
// It returns ErrNoLegalMoves iff the position admits no swap.
func (s *Solver) SelectMove(ctx context.Context, st *board.State) (*Evaluation, error) {
	evals, err := s.RankMoves(ctx, st)
	if err != nil {
		return nil, err
	}
	return evals[0], nil
}

// RankMoves evaluates every legal swap of st and returns them best
// first. Ties keep generation order. When the time budget expires
// mid-ranking the moves evaluated so far are returned; at least one
// move is always evaluated for a position that has one.
func (s *Solver) RankMoves(ctx context.Context, st *board.State) ([]*Evaluation, error) {
	moves := movegen.LegalMoves(st)
	if len(moves) == 0 {
		return nil, ErrNoLegalMoves
	}
	log.Debug().Int("moves", len(moves)).Int("plies", s.plies).
		Int("threads", s.threads).Msg("rank-config")
	tstart := time.Now()
	if s.timeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeBudget)
		defer cancel()
	}
	s.nodes.Store(0)

	ticker := &errgroup.Group{}
	done := make(chan bool)
	ticker.Go(func() error {
		t := time.NewTicker(1 * time.Second)
		defer t.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-t.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	// One result slot per candidate, written by whichever worker takes
	// the index. Collecting by index keeps the ranking independent of
	// scheduling.
	results := make([]*Evaluation, len(moves))
	jobChan := make(chan int, len(moves))
	g := errgroup.Group{}
	for t := 0; t < s.threads; t++ {
		g.Go(func() error {
			for idx := range jobChan {
				if ctx.Err() != nil {
					continue
				}
				ev, err := s.evaluate(ctx, st, moves[idx], s.bag.Fork(uint64(idx)), s.plies)
				if err != nil {
					return err
				}
				results[idx] = ev
			}
			return nil
		})
	}
	for idx := range moves {
		jobChan <- idx
	}
	close(jobChan)
	err := g.Wait()
	close(done)
	ticker.Wait()
	if err != nil {
		return nil, err
	}

	evals := make([]*Evaluation, 0, len(moves))
	for _, ev := range results {
		if ev != nil {
			evals = append(evals, ev)
		}
	}
	if len(evals) == 0 {
		// Budget gone before anything finished. Value the first move
		// without the deadline so the caller still gets a move out of
		// a live position.
		ev, everr := s.evaluate(context.Background(), st, moves[0], s.bag.Fork(0), 1)
		if everr != nil {
			return nil, everr
		}
		evals = append(evals, ev)
	}
	sort.SliceStable(evals, func(i, j int) bool {
		return evals[i].Score > evals[j].Score
	})

	log.Info().
		Int("moves", len(moves)).
		Int("evaluated", len(evals)).
		Uint64("nodes", s.nodes.Load()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("rank-returning")
	return evals, nil
}

// evaluate values one candidate at the given remaining depth, drawing
// refills from b. The immediate cascade always resolves in full; only
// the recursion into replies consults the context.
func (s *Solver) evaluate(ctx context.Context, st *board.State, m move.Move, b *bag.Bag, plies int) (*Evaluation, error) {
	swapped, err := st.WithSwap(m.From, m.To)
	if err != nil {
		return nil, err
	}
	res, err := cascade.NewResolver(b, s.curve, s.cascadeDepth).Resolve(swapped)
	if err != nil {
		return nil, err
	}
	s.nodes.Add(1)
	score, rationale := s.combined.Explain(res)
	ev := &Evaluation{Move: m, Result: res, Score: score, Rationale: rationale}
	if plies <= 1 {
		return ev, nil
	}

	replies := movegen.LegalMoves(res.Final)
	if len(replies) == 0 {
		return ev, nil
	}
	best := math.Inf(-1)
	found := false
	for i, rm := range replies {
		if ctx.Err() != nil {
			break
		}
		rev, rerr := s.evaluate(ctx, res.Final, rm, b.Fork(uint64(i)), plies-1)
		if rerr != nil {
			return nil, rerr
		}
		if !found || rev.Score > best {
			best = rev.Score
			found = true
		}
	}
	if !found {
		return ev, nil
	}
	future := s.discount * best
	ev.Score += future
	ev.Rationale = append(ev.Rationale, equity.Term{Name: "lookahead", Value: future})
	return ev, nil
}
