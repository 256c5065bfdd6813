package ident

// NameID is the lexicographic identifier used by by-name routing and by
// the SkipNet ring ordering. It is compared like a plain string, but
// exposes a longest-common-prefix length used to decide which skip ring a
// peer sits on relative to another name.
type NameID struct {
	name string
}

// NewNameID wraps a raw name string as a NameID.
func NewNameID(name string) NameID { return NameID{name: name} }

// GobEncode/GobDecode let NameID round-trip over gob despite its field
// being unexported — the wire codec (package wire) gob-encodes whole
// Envelope values, and gob otherwise silently drops unexported struct
// fields instead of erroring.
func (n NameID) GobEncode() ([]byte, error) { return []byte(n.name), nil }

func (n *NameID) GobDecode(data []byte) error {
	n.name = string(data)
	return nil
}

// String returns the underlying name.
func (n NameID) String() string { return n.name }

// Less is the strict lexicographic order.
func (n NameID) Less(other NameID) bool { return n.name < other.name }

// Equal reports whether the two identifiers name the same peer.
func (n NameID) Equal(other NameID) bool { return n.name == other.name }

// LongestCommonPrefix returns the length of the longest common prefix of
// the two names, plus a fractional tie-breaker derived from the first
// differing byte. The tie-breaker (grounded on nodeid.py:55,
// `abs(ord(a)-ord(b))/1024`) keeps three names with no common prefix at
// all from comparing as exactly equal prefix-length, which matters when
// picking the closer of two ring neighbours with no shared prefix.
func (n NameID) LongestCommonPrefix(other NameID) float64 {
	a, b := n.name, other.name
	bound := len(a)
	if len(b) < bound {
		bound = len(b)
	}
	i := 0
	for ; i < bound; i++ {
		if a[i] != b[i] {
			break
		}
	}
	length := float64(i)
	if i < len(a) && i < len(b) {
		diff := int(a[i]) - int(b[i])
		if diff < 0 {
			diff = -diff
		}
		length += float64(diff) / 1024.0
	}
	return length
}
