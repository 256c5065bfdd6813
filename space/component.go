package space

// Component is a (Dimension, value) pair where value is either a single
// point or a Range; exactly one of Pt/Rng is set. Virtual marks a
// component synthesised during routing for a dimension the original
// space part never defined (spec §3/§4.6).
type Component struct {
	Dim     Dimension
	Pt      *float64
	Rng     *Range[float64]
	Virtual bool
}

// NewPointComponent builds a concrete point component.
func NewPointComponent(dim Dimension, v float64) Component {
	return Component{Dim: dim, Pt: &v}
}

// NewRangeComponent builds a concrete range component.
func NewRangeComponent(dim Dimension, r Range[float64]) Component {
	return Component{Dim: dim, Rng: &r}
}

// NewVirtualComponent builds a component flagged as synthesised, carrying
// whichever of point or range the caller supplies via rng (a degenerate
// Range for a virtual point, as spec §4.6's insertion routing does when it
// fabricates a missing dimension from the CPE's known bound).
func NewVirtualComponent(dim Dimension, rng Range[float64]) Component {
	return Component{Dim: dim, Rng: &rng, Virtual: true}
}

// IsRangeValue reports whether this component carries a Range rather than
// a bare point.
func (c Component) IsRangeValue() bool { return c.Rng != nil }

// Value returns the component's view as a Range, widening a point value to
// its degenerate closed interval on the fly.
func (c Component) Value() Range[float64] {
	if c.Rng != nil {
		return *c.Rng
	}
	return Point(*c.Pt)
}

// PointValue returns the component's raw point value and whether it has
// one at all (false for an actual range component).
func (c Component) PointValue() (float64, bool) {
	if c.Pt == nil {
		return 0, false
	}
	return *c.Pt, true
}

// ToRange returns a copy of c with any point value widened into an
// equivalent degenerate Range — the per-component step behind
// SpacePart.Val2Range.
func (c Component) ToRange() Component {
	if c.Rng != nil {
		return c
	}
	r := Point(*c.Pt)
	return Component{Dim: c.Dim, Rng: &r, Virtual: c.Virtual}
}
