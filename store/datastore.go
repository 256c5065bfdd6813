package store

import (
	"sort"

	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/internal/errs"
	"github.com/PypeBros/skiptree/space"
)

// PureData is the opaque payload a peer stores alongside a SpacePart; the
// overlay and wire packages are the only code that needs to know its
// concrete shape, so DataStore treats it as a black box (spec §3's
// "PureData" is likewise left undefined beyond "application payload").
type PureData any

// entry is one (SpacePart, PureData) pair. A deleted entry's Data is left
// nil and its slot index retired rather than compacting the slice, so
// CompCounter slot references taken before a removal stay valid.
type entry struct {
	part *space.SpacePart
	data PureData
	live bool
}

// DataStore is the peer-local collection of stored items plus one
// CompCounter per dimension observed across them (spec §4.3).
type DataStore struct {
	entries  []entry
	counters map[space.Dimension]*CompCounter
	rnd      ident.Rand
}

// New returns an empty DataStore. rnd seeds every CompCounter created as
// new dimensions are observed; nil uses ident.DefaultRand.
func New(rnd ident.Rand) *DataStore {
	return &DataStore{counters: make(map[space.Dimension]*CompCounter), rnd: rnd}
}

// Reset discards every entry and counter, turning the store back into a
// fresh empty one — used by a joining peer that replaces its store
// wholesale with the items handed off by its welcoming peer (spec
// §4.7.2: "insert every received (space_part, data) into a fresh store").
func (d *DataStore) Reset(rnd ident.Rand) {
	d.entries = nil
	d.counters = make(map[space.Dimension]*CompCounter)
	d.rnd = rnd
}

// Len returns the number of live (non-removed) entries.
func (d *DataStore) Len() int {
	n := 0
	for _, e := range d.entries {
		if e.live {
			n++
		}
	}
	return n
}

// Add stores (part, data) and folds it into every tracked counter,
// including newly-observed dimensions backfilled over all existing
// entries (spec §4.3: "new dimensions observed ... back-filled by
// re-scanning all stored items").
func (d *DataStore) Add(part *space.SpacePart, data PureData) {
	for _, dim := range part.Dimensions() {
		if _, tracked := d.counters[dim]; !tracked {
			d.backfillCounter(dim)
		}
	}

	slot := len(d.entries)
	d.entries = append(d.entries, entry{part: part, data: data, live: true})

	for dim, counter := range d.counters {
		comp, ok := part.Component(dim)
		if !ok {
			counter.Add(nil, slot)
			continue
		}
		counter.Add(&comp, slot)
	}
}

// backfillCounter creates a counter for dim and feeds it every entry
// already stored. Add calls it before appending the new entry, so Add's
// own loop feeds that entry to the new counter exactly once.
func (d *DataStore) backfillCounter(dim space.Dimension) {
	counter := NewCompCounter(dim, d.rnd)
	for slot, e := range d.entries {
		if !e.live {
			continue
		}
		comp, ok := e.part.Component(dim)
		if !ok {
			counter.Add(nil, slot)
			continue
		}
		counter.Add(&comp, slot)
	}
	d.counters[dim] = counter
}

// Remove drops the entry at slot from the store and every counter.
func (d *DataStore) Remove(slot int) {
	if slot < 0 || slot >= len(d.entries) || !d.entries[slot].live {
		return
	}
	d.entries[slot].live = false
	d.entries[slot].data = nil
	for _, c := range d.counters {
		c.Remove(slot)
	}
}

// All returns every live entry as a detached StoredItem, for the operator
// CLI's "dump" command (original_source/src/__main__.py's print_debug).
// Unlike ExtractSlots, this never removes anything from the store.
func (d *DataStore) All() []StoredItem {
	out := make([]StoredItem, 0, d.Len())
	for _, e := range d.entries {
		if e.live {
			out = append(out, StoredItem{Part: e.part, Data: e.data})
		}
	}
	return out
}

// Get returns every live entry whose SpacePart is included by query
// (query.IncludesValue(part), spec §4.3).
func (d *DataStore) Get(query *space.SpacePart) []PureData {
	var out []PureData
	for _, e := range d.entries {
		if e.live && query.IncludesValue(e.part) {
			out = append(out, e.data)
		}
	}
	return out
}

// PartitionValue is the result of GetPartitionValue: the chosen dimension
// and the constituent CompCounter split.
type PartitionValue struct {
	Dim        space.Dimension
	Pivot      float64
	ItemsLeft  []int
	ItemsRight []int
}

// GetPartitionValue chooses which dimension to split a join on (spec
// §4.3/§4.4): among all tracked counters with at least one usable pivot,
// sort by virtual count ascending then by ratio_diff ascending, with
// ties on ratio broken by a coin flip applied to the pre-sort order so
// repeated joins don't always pick the same dimension. cpe is accepted
// for parity with the reference signature and future CPE-aware
// refinements; the current selection does not need to consult it.
func (d *DataStore) GetPartitionValue(c *cpe.CPE) (PartitionValue, error) {
	_ = c
	type candidate struct {
		dim    space.Dimension
		virt   int
		result PivotResult
		shuf   float64 // pre-sort coin for ratio ties
	}

	rnd := d.rnd
	if rnd == nil {
		rnd = ident.DefaultRand
	}

	var candidates []candidate
	for dim, counter := range d.counters {
		res, ok := counter.BestPivot()
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{
			dim:    dim,
			virt:   counter.VirtualCount(),
			result: res,
			shuf:   rnd.Float64(),
		})
	}
	if len(candidates) == 0 {
		return PartitionValue{}, errs.New(errs.EmptyStore, "no dimension admits a split", nil)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.virt != b.virt {
			return a.virt < b.virt
		}
		if a.result.RatioDiff != b.result.RatioDiff {
			return a.result.RatioDiff < b.result.RatioDiff
		}
		return a.shuf < b.shuf
	})

	best := candidates[0]
	return PartitionValue{
		Dim:        best.dim,
		Pivot:      best.result.Pivot,
		ItemsLeft:  best.result.ItemsLeft,
		ItemsRight: best.result.ItemsRight,
	}, nil
}

// ExtractSlots removes the entries at slots from this store and returns
// their (SpacePart, PureData) pairs, in slot order — used by the welcoming
// peer to hand off the joining peer's share of the data (spec §4.7.2 step 4).
func (d *DataStore) ExtractSlots(slots []int) []StoredItem {
	ordered := append([]int(nil), slots...)
	sort.Ints(ordered)

	out := make([]StoredItem, 0, len(ordered))
	for _, slot := range ordered {
		if slot < 0 || slot >= len(d.entries) || !d.entries[slot].live {
			continue
		}
		out = append(out, StoredItem{Part: d.entries[slot].part, Data: d.entries[slot].data})
		d.Remove(slot)
	}
	return out
}

// StoredItem is a detached (SpacePart, PureData) pair, used to move data
// between stores during a join's data split.
type StoredItem struct {
	Part *space.SpacePart
	Data PureData
}
