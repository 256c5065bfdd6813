// Package space implements the multi-dimensional key space: dimensions,
// ranges, components, and the space parts built from them (spec §3/§4.1).
//
// Component values are float64 throughout. spec.md's Range<T> is generic
// over any totally ordered T, but every worked example and scenario in the
// specification (§8's x:5, y:9, x:[0,10] ranges) is numeric, and every
// dimension of a given deployment shares the same ordered domain in
// practice. A per-dimension generic T would require type-erasing
// SpacePart's map[Dimension]Component to hold heterogeneous concrete types,
// which buys no behavior this spec exercises — see DESIGN.md.
package space

// Dimension is an interned name for one axis of the key space. Two
// dimensions are equal iff their names are equal (spec §3); a plain
// comparable string type already gives Go that for free.
type Dimension string

func (d Dimension) String() string { return string(d) }
