package ident

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"math/bits"

	"golang.org/x/crypto/blake2b"
)

// NumericIDBits is the default width of a NumericID, matching spec §3
// ("128 bits by default"). It is a compile-time constant: every NumericID
// this package produces has exactly this width.
const NumericIDBits = 128

const numericIDBytes = NumericIDBits / 8

// NumericID is a fixed-width bitstring identifier, compared as an unsigned
// big-endian integer and exposing a bitwise common-prefix length with
// another NumericID — the quantity that determines which skip ring a
// neighbour belongs to.
type NumericID struct {
	bytes [numericIDBytes]byte
}

// NewNumericIDFromSeed hashes an arbitrary seed (e.g. process-supplied
// entropy, or a peer's chosen name) into a NumericID with blake2b, mirroring
// the teacher's use of a keyed hash (golang.org/x/crypto/blake2s) to derive
// fixed-width identifiers from arbitrary input (device/noise-protocol.go).
func NewNumericIDFromSeed(seed []byte) (NumericID, error) {
	h, err := blake2b.New(numericIDBytes, nil)
	if err != nil {
		return NumericID{}, fmt.Errorf("numeric id hash: %w", err)
	}
	h.Write(seed)
	sum := h.Sum(nil)
	var id NumericID
	copy(id.bytes[:], sum)
	return id, nil
}

// NewRandomNumericID hashes fresh cryptographic randomness into a NumericID,
// spec §3's "generated by hashing a random seed" with no caller-supplied
// material.
func NewRandomNumericID() (NumericID, error) {
	seed := make([]byte, 64)
	if _, err := rand.Read(seed); err != nil {
		return NumericID{}, fmt.Errorf("numeric id seed: %w", err)
	}
	return NewNumericIDFromSeed(seed)
}

// ParseNumericID reads a NumericID from its hex representation, used when
// the process is given an explicit `<numeric_id>` argument (spec §6).
func ParseNumericID(hexStr string) (NumericID, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return NumericID{}, fmt.Errorf("parse numeric id: %w", err)
	}
	var id NumericID
	if len(raw) > numericIDBytes {
		raw = raw[len(raw)-numericIDBytes:]
	}
	copy(id.bytes[numericIDBytes-len(raw):], raw)
	return id, nil
}

// String returns the lowercase hex encoding of the identifier.
func (n NumericID) String() string { return hex.EncodeToString(n.bytes[:]) }

// GobEncode/GobDecode let NumericID round-trip over gob despite its field
// being unexported (see NameID.GobEncode for why this is needed at all).
func (n NumericID) GobEncode() ([]byte, error) { return n.bytes[:], nil }

func (n *NumericID) GobDecode(data []byte) error {
	if len(data) != numericIDBytes {
		return fmt.Errorf("numeric id gob decode: want %d bytes, got %d", numericIDBytes, len(data))
	}
	copy(n.bytes[:], data)
	return nil
}

// Bits returns the width of the identifier, NumericIDBits for every
// instance produced by this package.
func (n NumericID) Bits() int { return numericIDBytes * 8 }

// bigInt views the identifier as an unsigned big-endian integer.
func (n NumericID) bigInt() *big.Int { return new(big.Int).SetBytes(n.bytes[:]) }

// Less is the unsigned integer order over the identifier's bytes.
func (n NumericID) Less(other NumericID) bool { return n.bigInt().Cmp(other.bigInt()) < 0 }

// Equal reports byte-for-byte identity.
func (n NumericID) Equal(other NumericID) bool { return n.bytes == other.bytes }

// Distance returns |n - other| as an unsigned integer, used by by-numeric
// routing to decide whether a candidate hop is closer to the destination
// than the current best.
func (n NumericID) Distance(other NumericID) *big.Int {
	d := new(big.Int).Sub(n.bigInt(), other.bigInt())
	return d.Abs(d)
}

// LongestCommonPrefix returns the number of leading bits the two
// identifiers share.
func (n NumericID) LongestCommonPrefix(other NumericID) int {
	length := 0
	for i := 0; i < numericIDBytes; i++ {
		x := n.bytes[i] ^ other.bytes[i]
		if x == 0 {
			length += 8
			continue
		}
		length += bits.LeadingZeros8(x)
		break
	}
	return length
}
