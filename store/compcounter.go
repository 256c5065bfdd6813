// Package store implements the local per-peer DataStore and its
// per-dimension CompCounter pivot selection (spec §4.3/§4.4).
package store

import (
	"math"
	"sort"

	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/space"
)

// item is one stored value's component along this counter's dimension,
// paired back to the slot it occupies in the owning DataStore so a pivot
// decision can be translated into which stored entries go left or right.
type item struct {
	value float64
	slot  int
}

// CompCounter tracks every stored item's value on one dimension, split
// between items that actually define the dimension (constrained) and
// items that don't (virtual, tracked only by count). The reference
// implementation keeps constrained items in an AVL tree; this keeps them
// in a sorted slice re-sorted on insert, which is the comment in
// ListCompCounter.py itself flags as the thing a real deployment would
// upgrade first.
//
// TODO: back this with a balanced tree if insert volume ever makes the
// O(N) insert sort a bottleneck — the reference never got further than
// this either.
type CompCounter struct {
	dim          space.Dimension
	constrained  []item
	virtualSlots []int
	rnd          ident.Rand
}

// NewCompCounter returns an empty counter for dim. rnd supplies the coin
// flips used to break pivot and virtual-distribution ties; nil uses
// ident.DefaultRand.
func NewCompCounter(dim space.Dimension, rnd ident.Rand) *CompCounter {
	if rnd == nil {
		rnd = ident.DefaultRand
	}
	return &CompCounter{dim: dim, rnd: rnd}
}

// Add records one stored slot's component for this dimension. comp==nil
// means the item is virtual on this dimension (it has no value here).
func (c *CompCounter) Add(comp *space.Component, slot int) {
	if comp == nil {
		c.virtualSlots = append(c.virtualSlots, slot)
		return
	}
	v, ok := comp.PointValue()
	if !ok {
		// A range-valued component cannot anchor a split pivot; treat it
		// as virtual for this counter rather than erroring, since a
		// query SpacePart legitimately carries ranges that never get
		// inserted into a DataStore.
		c.virtualSlots = append(c.virtualSlots, slot)
		return
	}
	c.constrained = append(c.constrained, item{value: v, slot: slot})
	sort.Slice(c.constrained, func(i, j int) bool { return c.constrained[i].value < c.constrained[j].value })
}

// Remove drops the tracked entry for slot, wherever it currently lives.
func (c *CompCounter) Remove(slot int) {
	for i, it := range c.constrained {
		if it.slot == slot {
			c.constrained = append(c.constrained[:i], c.constrained[i+1:]...)
			return
		}
	}
	for i, s := range c.virtualSlots {
		if s == slot {
			c.virtualSlots = append(c.virtualSlots[:i], c.virtualSlots[i+1:]...)
			return
		}
	}
}

// VirtualCount is the number of stored items that don't define this
// dimension at all; DataStore.GetPartitionValue prefers dimensions with
// fewer of these so the chosen split actually partitions most of the
// data.
func (c *CompCounter) VirtualCount() int { return len(c.virtualSlots) }

// PivotResult is one dimension's candidate split.
type PivotResult struct {
	Pivot      float64
	RatioDiff  float64
	ItemsLeft  []int // store slots assigned LEFT (value <= pivot, plus assigned virtuals)
	ItemsRight []int
}

// valueGroup buckets every constrained item sharing one distinct value,
// mirroring ListCompCounter.py's __constrained entries (each a
// [value, left_sided, [datas]] triple) — ties must move to the same side
// of the pivot together, never split by insertion or slice order.
type valueGroup struct {
	value float64
	slots []int
}

// groupByValue buckets c.constrained (kept sorted by Add) into runs of
// equal value.
func (c *CompCounter) groupByValue() []valueGroup {
	groups := make([]valueGroup, 0, len(c.constrained))
	for _, it := range c.constrained {
		if n := len(groups); n > 0 && groups[n-1].value == it.value {
			groups[n-1].slots = append(groups[n-1].slots, it.slot)
			continue
		}
		groups = append(groups, valueGroup{value: it.value, slots: []int{it.slot}})
	}
	return groups
}

// BestPivot returns the value v* minimising |count(<=v)/N - 0.5| among
// this counter's constrained values (spec §4.4), rounded to 8 decimals,
// then distributes virtual items between the two sides to minimise the
// final size imbalance, breaking ties with a coin flip. Returns false if
// there are fewer than 2 constrained items (no meaningful split exists).
func (c *CompCounter) BestPivot() (PivotResult, bool) {
	n := len(c.constrained)
	if n < 2 {
		return PivotResult{}, false
	}

	groups := c.groupByValue()

	bestIdx := 0
	bestDiff := math.MaxFloat64
	bestLeftCount := 0
	leftSoFar := 0
	for i, g := range groups {
		leftSoFar += len(g.slots)
		ratio := float64(leftSoFar) / float64(n)
		diff := math.Abs(ratio - 0.5)
		if diff < bestDiff {
			bestDiff = diff
			bestIdx = i
			bestLeftCount = leftSoFar
		}
	}

	pivot := roundTo8(groups[bestIdx].value)
	leftCount := bestLeftCount
	rightCount := n - leftCount

	left := make([]int, 0, leftCount+len(c.virtualSlots))
	right := make([]int, 0, rightCount+len(c.virtualSlots))
	for _, g := range groups {
		if g.value <= pivot {
			left = append(left, g.slots...)
		} else {
			right = append(right, g.slots...)
		}
	}

	leftN, rightN := leftCount, rightCount
	for _, slot := range c.virtualSlots {
		switch {
		case leftN < rightN:
			left = append(left, slot)
			leftN++
		case rightN < leftN:
			right = append(right, slot)
			rightN++
		default:
			if c.rnd.Intn(2) == 0 {
				left = append(left, slot)
				leftN++
			} else {
				right = append(right, slot)
				rightN++
			}
		}
	}

	return PivotResult{
		Pivot:      pivot,
		RatioDiff:  roundTo8(bestDiff),
		ItemsLeft:  left,
		ItemsRight: right,
	}, true
}

func roundTo8(v float64) float64 {
	const scale = 1e8
	return math.Round(v*scale) / scale
}
