package space

import (
	"cmp"

	"github.com/PypeBros/skiptree/ident"
)

// Range is a possibly half-open interval over any totally ordered type,
// generic so the same implementation serves both space-part components
// (Range[float64]) and partition-id windows (Range[ident.PartitionID],
// see package envelope's PidRange) — the generic-table style gaissmai/bart
// uses throughout its trie nodes is the model for leaning on Go generics
// here rather than hand-duplicating the interval logic per value type.
//
// A nil Min or Max means that end is unbounded.
type Range[T cmp.Ordered] struct {
	Min, Max             *T
	MinIncluded, MaxIncluded bool
}

// Point returns a degenerate, closed range representing a single value.
func Point[T cmp.Ordered](v T) Range[T] {
	return Range[T]{Min: &v, Max: &v, MinIncluded: true, MaxIncluded: true}
}

// Unbounded returns the range covering the whole of T.
func Unbounded[T cmp.Ordered]() Range[T] {
	return Range[T]{}
}

// IncludesValue reports whether v falls within the range.
func (r Range[T]) IncludesValue(v T) bool {
	if r.Min != nil {
		if v < *r.Min || (v == *r.Min && !r.MinIncluded) {
			return false
		}
	}
	if r.Max != nil {
		if v > *r.Max || (v == *r.Max && !r.MaxIncluded) {
			return false
		}
	}
	return true
}

// IsPoint reports whether the range is degenerate (Min==Max, both included).
func (r Range[T]) IsPoint() bool {
	return r.Min != nil && r.Max != nil && *r.Min == *r.Max && r.MinIncluded && r.MaxIncluded
}

// AnyPointBefore reports whether the range contains any value strictly
// less than v — used by CPE classification to decide whether a range
// straddling a split pivot must also be routed LEFT.
func (r Range[T]) AnyPointBefore(v T) bool {
	if r.Min == nil {
		return true
	}
	return *r.Min < v
}

// AnyPointAfter reports whether the range contains any value strictly
// greater than v.
func (r Range[T]) AnyPointAfter(v T) bool {
	if r.Max == nil {
		return true
	}
	return *r.Max > v
}

// Overlaps reports whether r and other share at least one value.
func (r Range[T]) Overlaps(other Range[T]) bool {
	if r.Max != nil && other.Min != nil {
		if *r.Max < *other.Min {
			return false
		}
		if *r.Max == *other.Min && !(r.MaxIncluded && other.MinIncluded) {
			return false
		}
	}
	if other.Max != nil && r.Min != nil {
		if *other.Max < *r.Min {
			return false
		}
		if *other.Max == *r.Min && !(other.MaxIncluded && r.MinIncluded) {
			return false
		}
	}
	return true
}

// Restrict returns a new, tighter range: in direction LEFT the result's
// upper bound becomes v; in direction RIGHT the lower bound becomes v. The
// new bound includes v exactly when included is true; if the existing
// bound is already tighter it is kept unchanged. This is
// the operation PidRange narrowing uses to shrink the set of leaves a
// by-CPE envelope may still visit as it walks past each neighbour.
func (r Range[T]) Restrict(direction ident.Direction, v T, included bool) Range[T] {
	out := r
	switch direction {
	case ident.LEFT:
		if out.Max == nil || v < *out.Max || (v == *out.Max && !included) {
			val := v
			out.Max = &val
			out.MaxIncluded = included
		}
	case ident.RIGHT:
		if out.Min == nil || v > *out.Min || (v == *out.Min && !included) {
			val := v
			out.Min = &val
			out.MinIncluded = included
		}
	}
	return out
}
