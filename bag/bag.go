// Package bag supplies the gems that refill a board after a cascade
// step. A Bag is an immutable value: it never carries generator state
// between calls. Instead, every refill pass gets its own PCG stream
// derived from (seed, bag stream, board generation), which is what
// makes any cascade replayable from just those numbers, and lets
// parallel search workers own forked bags without any locking.
package bag

import (
	"errors"
	"fmt"

	"github.com/dgryski/go-pcgr"

	"github.com/trovebot/trove/gem"
)

// splitmix64's increment; spreads consecutive stream/generation
// indexes across the PCG sequence space.
const streamGamma = 0x9E3779B97F4A7C15

var ErrNoKinds = errors.New("bag needs at least one gem kind")

// A Bag draws uniformly from a fixed set of gem kinds.
type Bag struct {
	seed   int64
	stream uint64
	kinds  []gem.Gem
}

// New creates a bag drawing from the given kinds. The kinds slice is
// copied. Kind values are the caller's policy; the cascade resolver
// rejects unmatchable draws at the point of use.
func New(seed int64, kinds []gem.Gem) (*Bag, error) {
	if len(kinds) == 0 {
		return nil, ErrNoKinds
	}
	k := make([]gem.Gem, len(kinds))
	copy(k, kinds)
	return &Bag{seed: seed, kinds: k}, nil
}

// Default creates a bag over all six matchable kinds.
func Default(seed int64) *Bag {
	b, _ := New(seed, gem.Kinds())
	return b
}

func (b *Bag) Seed() int64    { return b.seed }
func (b *Bag) Stream() uint64 { return b.stream }

// Kinds returns a copy of the draw set.
func (b *Bag) Kinds() []gem.Gem {
	k := make([]gem.Gem, len(b.kinds))
	copy(k, b.kinds)
	return k
}

// Fork derives the child bag for an independent simulation stream,
// e.g. one per candidate move index in a parallel search. Children of
// the same parent and index are identical; the parent is unaffected.
func (b *Bag) Fork(n uint64) *Bag {
	return &Bag{seed: b.seed, stream: derive(b.stream, n), kinds: b.kinds}
}

// Draws opens the draw stream used to refill a board at the given
// generation. Calling it again with the same generation yields the
// same sequence.
func (b *Bag) Draws(generation uint64) *DrawStream {
	return &DrawStream{
		rand:  pcgr.New(b.seed, int64(derive(b.stream, generation))),
		kinds: b.kinds,
	}
}

func (b *Bag) String() string {
	return fmt.Sprintf("<bag seed %d stream %x kinds %d>", b.seed, b.stream, len(b.kinds))
}

func derive(stream, n uint64) uint64 {
	return stream*streamGamma + n + 1
}

// A DrawStream hands out one gem per call, with the raw bounded PCG
// output alongside so cascade steps can log the draw itself.
type DrawStream struct {
	rand  pcgr.Rand
	kinds []gem.Gem
}

func (d *DrawStream) Draw() (gem.Gem, uint32) {
	raw := d.rand.Bound(uint32(len(d.kinds)))
	return d.kinds[raw], raw
}
