package neighbour

import "github.com/PypeBros/skiptree/ident"

// FixupHigher is the state threaded through each hop of an
// SNFixupHigher scan: a newly-repaired ring level announcing src to
// peers further along the ring, looking for one whose numeric-id shares
// a longer prefix with src so the repair can propagate to the next
// level up (spec §4.8).
type FixupHigher struct {
	Src       NodeRef
	RingLevel int
	Direction ident.Direction
}

// FixupOutcome is the result of one peer processing a FixupHigher hop.
// Exactly one of Stop, (Next set), or (ReportToSrc set) applies.
type FixupOutcome struct {
	Stop        bool
	Next        NodeRef
	ReportToSrc bool
	Collected   []NodeRef
}

// StartFixupHigher computes the first hop of a freshly repaired side, to
// be sent as the initial SNFixupHigher by the peer whose ring just grew
// (spec §4.8: "send ... SNFixupHigher(self, ring_level, side)"). ok is
// false if that side has no neighbour to forward to at all.
func StartFixupHigher(src NodeRef, ringLevel int, direction ident.Direction, nh *Neighbourhood) (next NodeRef, fx FixupHigher, ok bool) {
	half := nh.Ring(ringLevel).Side(direction)
	closest, found := half.Closest()
	if !found {
		return NodeRef{}, FixupHigher{}, false
	}
	return closest, FixupHigher{Src: src, RingLevel: ringLevel, Direction: direction}, true
}

// ProcessFixupHigher implements one hop of the scan at the peer currently
// holding the envelope (spec §4.8, "Subsequent hops at peer P"):
//   - stop if the ring has been fully traversed, or src == self;
//   - stop once lies_between_direction says the scan has gone far enough
//     round the ring without finding a higher-prefix peer;
//   - otherwise, if self shares a longer numeric-id prefix with src than
//     ring_level, this is the higher-ring peer: collect its ring at
//     ring_level+1 and report back to src;
//   - otherwise forward to the next closest neighbour in the same
//     direction and level.
func ProcessFixupHigher(self NodeRef, fx FixupHigher, nh *Neighbourhood) FixupOutcome {
	if fx.Src.NameID.Equal(self.NameID) {
		return FixupOutcome{Stop: true}
	}

	half := nh.Ring(fx.RingLevel).Side(fx.Direction)
	closest, ok := half.Closest()
	if !ok {
		return FixupOutcome{Stop: true}
	}
	if ident.LiesBetweenDirection(fx.Direction, self.NameID, fx.Src.NameID, closest.NameID, half.CanWrap()) {
		return FixupOutcome{Stop: true}
	}

	if self.NumericID.LongestCommonPrefix(fx.Src.NumericID) > fx.RingLevel {
		return FixupOutcome{ReportToSrc: true, Collected: nh.Ring(fx.RingLevel + 1).UniqueNeighbours()}
	}

	return FixupOutcome{Next: closest}
}
