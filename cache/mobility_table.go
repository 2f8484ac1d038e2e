// Package cache holds the fingerprint-keyed mobility table. Counting
// legal moves is the expensive part of evaluation, and deep searches
// revisit transposed boards often enough that memoizing the count
// pays for itself.
package cache

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

const entrySize = 8

const bottom24Mask = (1 << 24) - 1

// Size floor and cap, as powers of two. The floor keeps the index
// math honest on tiny test tables; the cap keeps a fat machine from
// burning gigabytes on an 8x8 puzzle.
const (
	minSizePowerOf2 = 16
	maxSizePowerOf2 = 26
)

// A MobilityTable is a lossy, lock-free map from board fingerprint to
// legal-move count. Each entry packs the top 40 bits of the
// fingerprint with the count in one atomic word; an entry whose high
// bits don't match the probe is treated as a miss and simply
// overwritten on the next store. A matching-high-bits collision
// between two distinct boards is possible in principle and tolerated,
// the same trade every transposition table makes.
type MobilityTable struct {
	table        []atomic.Uint64
	sizePowerOf2 int
	sizeMask     uint64

	created      atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	t2collisions atomic.Uint64
}

// NewMobilityTable allocates a table using the given fraction of
// physical memory, clamped to the floor/cap above.
func NewMobilityTable(fractionOfMemory float64) *MobilityTable {
	t := &MobilityTable{}
	t.Reset(fractionOfMemory)
	return t
}

// Reset resizes (or clears) the table and zeroes the counters.
func (t *MobilityTable) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	t.sizePowerOf2 = 0
	if desiredNElems >= 1 {
		t.sizePowerOf2 = int(math.Log2(desiredNElems))
	}
	if t.sizePowerOf2 < minSizePowerOf2 {
		t.sizePowerOf2 = minSizePowerOf2
	}
	if t.sizePowerOf2 > maxSizePowerOf2 {
		t.sizePowerOf2 = maxSizePowerOf2
	}
	numElems := 1 << t.sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	if t.table != nil && len(t.table) == numElems {
		for i := range t.table {
			t.table[i].Store(0)
		}
	} else {
		t.table = make([]atomic.Uint64, numElems)
	}
	log.Debug().Int("num-elems", numElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("mobility-table-size")
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.t2collisions.Store(0)
}

// Lookup returns the cached mobility for a fingerprint, if present.
func (t *MobilityTable) Lookup(fp uint64) (int, bool) {
	t.lookups.Add(1)
	raw := t.table[fp&t.sizeMask].Load()
	if raw == 0 {
		return 0, false
	}
	if raw&^uint64(bottom24Mask) != fp&^uint64(bottom24Mask) {
		t.t2collisions.Add(1)
		return 0, false
	}
	t.hits.Add(1)
	// count is stored +1 so an empty word never looks like a hit
	return int(raw&bottom24Mask) - 1, true
}

// Store records the mobility for a fingerprint, overwriting whatever
// shared its slot.
func (t *MobilityTable) Store(fp uint64, mobility int) {
	if mobility < 0 || mobility >= bottom24Mask {
		return
	}
	packed := (fp &^ uint64(bottom24Mask)) | uint64(mobility+1)
	t.table[fp&t.sizeMask].Store(packed)
	t.created.Add(1)
}

func (t *MobilityTable) Stats() string {
	return fmt.Sprintf("created: %d lookups: %d hits: %d t2collisions: %d",
		t.created.Load(), t.lookups.Load(), t.hits.Load(), t.t2collisions.Load())
}

func (t *MobilityTable) Created() uint64 { return t.created.Load() }
func (t *MobilityTable) Lookups() uint64 { return t.lookups.Load() }
func (t *MobilityTable) Hits() uint64    { return t.hits.Load() }
