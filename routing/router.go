// Package routing implements the four addressing modes an envelope can
// carry — direct, by-name, by-numeric, and by-CPE (forking and
// insertion) — and the TTL bookkeeping common to all of them (spec
// §4.6). Routing functions are pure: they consult a CPE and a
// Neighbourhood snapshot and return the next hop(s), never performing
// I/O themselves (spec §5's "routing functions are non-blocking").
package routing

import (
	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/internal/errs"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/space"
)

// Destination is one outcome of a routing decision: either a local
// delivery (Local true, Peer is self) or a next hop to forward Envelope
// to. Deferred marks the by-CPE "neighbour's routing table isn't ready
// yet" case (spec §4.6 step 4): the caller should requeue Envelope at
// Peer for later re-routing and separately send an SNPingRequest.
type Destination struct {
	Peer     neighbour.NodeRef
	Local    bool
	Envelope *envelope.Envelope
	Deferred bool
}

// Router resolves routing decisions against one peer's own CPE and
// Neighbourhood.
type Router struct {
	CPE *cpe.CPE
	NH  *neighbour.Neighbourhood
}

// New builds a Router over c and nh.
func New(c *cpe.CPE, nh *neighbour.Neighbourhood) *Router {
	return &Router{CPE: c, NH: nh}
}

// Route dispatches e by its Kind, decrementing its TTL first — spec
// §4.6: "every envelope carries a TTL... decremented at each accept."
func (r *Router) Route(e *envelope.Envelope) ([]Destination, error) {
	if e.TTL <= 0 {
		return nil, errs.Of(errs.TTLExpired)
	}
	e.TTL--

	switch e.Kind {
	case envelope.RouteDirect, envelope.RouteByPayload:
		return r.routeDirect(e)
	case envelope.RouteByName:
		return r.routeByName(e)
	case envelope.RouteByNumeric:
		return r.routeByNumeric(e)
	case envelope.RouteByCPE:
		return r.routeByCPE(e)
	default:
		return nil, errs.New(errs.EmptyRouting, "unknown routing kind", nil)
	}
}

func (r *Router) routeDirect(e *envelope.Envelope) ([]Destination, error) {
	if e.Dest == nil {
		return nil, errs.New(errs.EmptyRouting, "direct envelope has no destination", nil)
	}
	self := r.NH.Self()
	return []Destination{{
		Peer:     *e.Dest,
		Local:    e.Dest.NameID.Equal(self.NameID),
		Envelope: e,
	}}, nil
}

// routeByName walks rings from the top down, stepping toward target one
// hop at a time, falling back to local delivery once no ring neighbour
// makes further progress (spec §4.6 "By-name routing").
func (r *Router) routeByName(e *envelope.Envelope) ([]Destination, error) {
	self := r.NH.Self()
	target := e.NameTarget

	direction := ident.RIGHT
	if target.Less(self.NameID) {
		direction = ident.LEFT
	}

	for h := r.NH.Levels() - 1; h >= 0; h-- {
		half := r.NH.Ring(h).Side(direction)
		next, ok := half.Closest()
		if !ok || next.NameID.Equal(self.NameID) {
			continue
		}
		if ident.LiesBetweenDirection(direction, self.NameID, next.NameID, target, half.CanWrap()) {
			return []Destination{{Peer: next, Envelope: e}}, nil
		}
	}
	return []Destination{{Peer: self, Local: true, Envelope: e}}, nil
}

// routeByNumeric advances the envelope's threaded (best, start,
// ring_level, final) state one hop per call (spec §4.6 "By-numeric
// routing"). The first call for a given envelope performs the initial
// send unconditionally — the reference's "start == self means the whole
// ring was traversed" check only makes sense for hops after the first,
// since the originator IS start.
func (r *Router) routeByNumeric(e *envelope.Envelope) ([]Destination, error) {
	self := r.NH.Self()

	if !e.NumStarted {
		start, best := self, self
		e.NumStart = &start
		e.NumBest = &best
		e.NumRingLevel = 0
		e.NumStarted = true
		return r.advanceNumeric(e, self)
	}

	if e.NumericTarget.Equal(self.NumericID) || e.NumFinal {
		return []Destination{{Peer: self, Local: true, Envelope: e}}, nil
	}

	if e.NumStart.NameID.Equal(self.NameID) {
		return []Destination{{Peer: *e.NumBest, Envelope: e}}, nil
	}

	if self.NumericID.LongestCommonPrefix(e.NumericTarget) > e.NumRingLevel {
		start, best := self, self
		e.NumStart = &start
		e.NumBest = &best
		e.NumRingLevel = 0
	} else if e.NumericTarget.Distance(self.NumericID).Cmp(e.NumericTarget.Distance(e.NumBest.NumericID)) < 0 {
		best := self
		e.NumBest = &best
	}

	return r.advanceNumeric(e, self)
}

func (r *Router) advanceNumeric(e *envelope.Envelope, self neighbour.NodeRef) ([]Destination, error) {
	next := r.NH.GetNeighbour(ident.RIGHT, e.NumRingLevel)
	if next.NameID.Equal(self.NameID) {
		return []Destination{{Peer: self, Local: true, Envelope: e}}, nil
	}
	return []Destination{{Peer: next, Envelope: e}}, nil
}

// routeByCPE is the core multi-dimensional range-query router (spec
// §4.6 "By-CPE routing (forking)"). e.Forking=false runs the insertion
// variant: missing dimensions are synthesised from the local CPE's known
// bounds and the result is single-target.
func (r *Router) routeByCPE(e *envelope.Envelope) ([]Destination, error) {
	self := r.NH.Self()
	part := e.SpacePart
	if !e.Forking {
		part = r.synthesizeMissingDims(part)
	}

	left, here, right, err := r.CPE.WhichSideSpace(part, e.Forking)
	if err != nil {
		return nil, err
	}

	var dests []Destination
	if here {
		clone := e.Clone()
		clone.Limit = space.Point(self.PartID)
		dests = append(dests, Destination{Peer: self, Local: true, Envelope: clone})
		if !e.Forking {
			return dests, nil
		}
	}

	type scan struct {
		direction ident.Direction
		enabled   bool
		subRange  envelope.PidRange
	}
	scans := [2]scan{
		{direction: ident.LEFT, enabled: left, subRange: e.Limit.Restrict(ident.LEFT, self.PartID, false)},
		{direction: ident.RIGHT, enabled: right, subRange: e.Limit.Restrict(ident.RIGHT, self.PartID, false)},
	}

	for _, sc := range scans {
		if !sc.enabled {
			continue
		}
		subRange := sc.subRange

		var lastExamined *ident.NameID
		for h := r.NH.Levels() - 1; h >= 0; h-- {
			half := r.NH.Ring(h).Side(sc.direction)
			if half.Len() == 0 || (h > 0 && half.Len() < 2) {
				continue
			}
			nh, ok := half.Closest()
			if !ok {
				continue
			}
			if lastExamined != nil && nh.NameID.Equal(*lastExamined) {
				continue
			}
			name := nh.NameID
			lastExamined = &name

			if nh.CPE == nil || nh.CPE.K() == 0 {
				dests = append(dests, Destination{Peer: nh, Envelope: e, Deferred: true})
				break
			}
			if !subRange.IncludesValue(nh.PartID) {
				continue
			}

			lp, hp, rp, err := nh.CPE.WhichSideSpace(part, true)
			if err != nil {
				continue
			}

			if hp || forwardSide(sc.direction, lp, rp) {
				clone := e.Clone()
				clone.Limit = subRange.Restrict(sc.direction, nh.PartID, true)
				dests = append(dests, Destination{Peer: nh, Envelope: clone})

				subRange = subRange.Restrict(sc.direction.Opposite(), nh.PartID, true)
				if !backwardSide(sc.direction, lp, rp) {
					break
				}
			}
		}
	}

	if len(dests) == 0 {
		return nil, errs.Of(errs.EmptyRouting)
	}
	return dests, nil
}

func forwardSide(direction ident.Direction, left, right bool) bool {
	if direction == ident.LEFT {
		return left
	}
	return right
}

func backwardSide(direction ident.Direction, left, right bool) bool {
	if direction == ident.LEFT {
		return right
	}
	return left
}

// synthesizeMissingDims fills in, for every dimension this router's own
// CPE splits on but part doesn't define, a degenerate virtual component
// from the CPE's known bound on that dimension — spec §4.6's "Insertion
// routing" synthesis step.
func (r *Router) synthesizeMissingDims(part *space.SpacePart) *space.SpacePart {
	out := part.Clone()
	for dim := range r.CPE.Dimensions() {
		if out.HasDimension(dim) {
			continue
		}
		rng := r.CPE.GetRange(dim)
		v, ok := finiteEndpoint(rng)
		if !ok {
			continue
		}
		out.SetComponent(space.NewVirtualComponent(dim, space.Point(v)))
	}
	return out
}

func finiteEndpoint(r space.Range[float64]) (float64, bool) {
	if r.Min != nil {
		return *r.Min, true
	}
	if r.Max != nil {
		return *r.Max, true
	}
	return 0, false
}
