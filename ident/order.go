package ident

// lessThan is satisfied by every identifier type this package totally
// orders: NameID, NumericID, and PartitionID.
type lessThan[T any] interface {
	comparable
	Less(T) bool
}

// LiesBetween reports whether b lies strictly between a and c scanning
// forward (increasing order), with exactly one wrap of the cyclic order
// permitted: a<b<c, or b<c<a, or c<a<b, or c==a (the degenerate
// single-node-ring case). Grounded on nodeid.py's lies_between.
func LiesBetween[T lessThan[T]](a, b, c T) bool {
	return (a.Less(b) && b.Less(c)) ||
		(b.Less(c) && c.Less(a)) ||
		(c.Less(a) && a.Less(b)) ||
		c == a
}

// LiesBetweenDirection is LiesBetween scanned in direction, with wrapping
// gated by canWrap: when false, only the monotonic case (no cyclic wrap)
// is accepted. Scanning LEFT is scanning RIGHT over (c, b, a).
func LiesBetweenDirection[T lessThan[T]](direction Direction, a, b, c T, canWrap bool) bool {
	if direction == LEFT {
		a, c = c, a
	}
	if a.Less(b) && b.Less(c) {
		return true
	}
	if !canWrap {
		return false
	}
	return (b.Less(c) && c.Less(a)) || (c.Less(a) && a.Less(b)) || c == a
}
