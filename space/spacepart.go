package space

import (
	"bytes"
	"encoding/gob"
)

// SpacePart is a mapping from Dimension to Component: a peer's owned
// region, a lookup key, or a query (spec §3).
type SpacePart struct {
	components map[Dimension]Component
}

// New returns an empty SpacePart.
func New() *SpacePart {
	return &SpacePart{components: make(map[Dimension]Component)}
}

// GobEncode/GobDecode let SpacePart round-trip over gob despite its field
// being unexported (the wire codec, package wire, gob-encodes whole
// Envelope values including embedded SpaceParts).
func (s *SpacePart) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.components); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *SpacePart) GobDecode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(&s.components)
}

// SetComponent adds or overwrites the component for its dimension.
func (s *SpacePart) SetComponent(c Component) {
	s.components[c.Dim] = c
}

// Component returns the component stored for dim, if any.
func (s *SpacePart) Component(dim Dimension) (Component, bool) {
	c, ok := s.components[dim]
	return c, ok
}

// Dimensions returns the set of dimensions this space part defines,
// order unspecified.
func (s *SpacePart) Dimensions() []Dimension {
	dims := make([]Dimension, 0, len(s.components))
	for d := range s.components {
		dims = append(dims, d)
	}
	return dims
}

// HasDimension reports whether dim is defined on this space part.
func (s *SpacePart) HasDimension(dim Dimension) bool {
	_, ok := s.components[dim]
	return ok
}

// IsRange reports whether any component is a genuine (non-degenerate)
// range rather than a point — i.e. whether this space part describes a
// query/region instead of a single key.
func (s *SpacePart) IsRange() bool {
	for _, c := range s.components {
		if c.IsRangeValue() && !c.Value().IsPoint() {
			return true
		}
	}
	return false
}

// Generalize returns a copy of s with dim removed entirely.
func (s *SpacePart) Generalize(dim Dimension) *SpacePart {
	out := New()
	for d, c := range s.components {
		if d == dim {
			continue
		}
		out.components[d] = c
	}
	return out
}

// Val2Range returns a copy of s with every point component widened into
// its degenerate Range form.
func (s *SpacePart) Val2Range() *SpacePart {
	out := New()
	for d, c := range s.components {
		out.components[d] = c.ToRange()
	}
	return out
}

// IncludesValue reports whether other (typically a concrete point key)
// falls inside every dimension this space part constrains. A dimension
// present in s but absent from other never matches (used by DataStore.Get
// to select matching stored items for a query).
func (s *SpacePart) IncludesValue(other *SpacePart) bool {
	for dim, c := range s.components {
		oc, ok := other.components[dim]
		if !ok {
			return false
		}
		v, isPoint := oc.PointValue()
		if !isPoint {
			// A range can only "be included" in another range if it is
			// itself degenerate to the same point; ranges as stored keys
			// are not part of this spec's model, so treat as non-match.
			return false
		}
		if !c.Value().IncludesValue(v) {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of s whose component map can be mutated
// independently.
func (s *SpacePart) Clone() *SpacePart {
	out := New()
	for d, c := range s.components {
		out.components[d] = c
	}
	return out
}
