// Package envelope defines the routing-layer envelope taxonomy and the
// control/application payloads it carries (spec §6), plus the PidRange
// type the by-CPE router narrows as it walks (spec §4.6).
package envelope

import (
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/space"
)

// Kind discriminates the routing-layer envelope taxonomy of spec §6.
type Kind int

const (
	RouteDirect Kind = iota
	RouteByName
	RouteByNumeric
	RouteByPayload
	RouteByCPE
)

// DefaultTTL is the hop budget every new envelope starts with (spec §4.6).
const DefaultTTL = 16

// PidRange is a range over partition-ids, the "limit" the by-CPE router
// narrows monotonically to avoid cycles and duplicate delivery.
type PidRange = space.Range[ident.PartitionID]

// FullPidRange is the unrestricted (0,1) partition-id range a freshly
// originated RouteByCPE envelope starts with.
func FullPidRange() PidRange { return space.Unbounded[ident.PartitionID]() }

// Envelope is the single wire/routing unit. Only the fields relevant to
// its Kind are populated; this mirrors the teacher's own IPC message
// structs (one Go type, a discriminant field, optional members) rather
// than attempting a sum type Go doesn't have.
type Envelope struct {
	Kind    Kind
	TTL     int
	Payload any

	// RouteDirect / RouteByPayload
	Dest *neighbour.NodeRef

	// RouteByName
	NameTarget ident.NameID

	// RouteByNumeric — state threaded hop to hop, spec §4.6.
	NumericTarget ident.NumericID
	NumStarted    bool
	NumStart      *neighbour.NodeRef
	NumBest       *neighbour.NodeRef
	NumRingLevel  int
	NumFinal      bool

	// RouteByCPE
	SpacePart *space.SpacePart
	Limit     PidRange
	Forking   bool
}

// NewRouteDirect addresses an envelope straight to dest.
func NewRouteDirect(dest neighbour.NodeRef, payload any) *Envelope {
	return &Envelope{Kind: RouteDirect, TTL: DefaultTTL, Payload: payload, Dest: &dest}
}

// NewRouteByPayload is routed exactly like RouteDirect: the payload
// already carries the resolved destination (e.g. a reply whose recipient
// was recorded when the original request arrived). Kept as a distinct
// Kind because spec §6 lists it separately from RouteDirect.
func NewRouteByPayload(dest neighbour.NodeRef, payload any) *Envelope {
	return &Envelope{Kind: RouteByPayload, TTL: DefaultTTL, Payload: payload, Dest: &dest}
}

// NewRouteByName addresses an envelope to whichever live peer is nearest
// target in name-id space.
func NewRouteByName(target ident.NameID, payload any) *Envelope {
	return &Envelope{Kind: RouteByName, TTL: DefaultTTL, Payload: payload, NameTarget: target}
}

// NewRouteByNumeric addresses an envelope to the peer owning target in
// numeric-id space, walking skip rings upward then around (spec §4.6).
func NewRouteByNumeric(target ident.NumericID, payload any) *Envelope {
	return &Envelope{Kind: RouteByNumeric, TTL: DefaultTTL, Payload: payload, NumericTarget: target}
}

// NewRouteByCPE addresses an envelope to every peer whose CPE intersects
// spacePart, forking across the skip-tree as it walks. forking=false is
// the single-target insertion-routing variant (spec §4.6).
func NewRouteByCPE(spacePart *space.SpacePart, forking bool, payload any) *Envelope {
	return &Envelope{
		Kind:      RouteByCPE,
		TTL:       DefaultTTL,
		Payload:   payload,
		SpacePart: spacePart,
		Limit:     FullPidRange(),
		Forking:   forking,
	}
}

// Clone returns a shallow copy suitable for forking down a second path;
// routing mutates Limit on the clone, never shares it back with the
// original envelope still being scanned.
func (e *Envelope) Clone() *Envelope {
	c := *e
	return &c
}
