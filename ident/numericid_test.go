package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericIDFromSeedDeterministic(t *testing.T) {
	a, err := NewNumericIDFromSeed([]byte("same-seed"))
	require.NoError(t, err)
	b, err := NewNumericIDFromSeed([]byte("same-seed"))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	c, err := NewNumericIDFromSeed([]byte("other-seed"))
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
}

func TestNumericIDLongestCommonPrefix(t *testing.T) {
	a, err := ParseNumericID("ff00000000000000000000000000ff00")
	require.NoError(t, err)
	b, err := ParseNumericID("ff10000000000000000000000000ff00")
	require.NoError(t, err)
	// both start with byte 0xff, then byte 1 is 0x00 vs 0x10 (differ at bit 3 of that byte).
	assert.Equal(t, 11, a.LongestCommonPrefix(b))
}

func TestNumericIDRoundTripHex(t *testing.T) {
	id, err := NewRandomNumericID()
	require.NoError(t, err)
	parsed, err := ParseNumericID(id.String())
	require.NoError(t, err)
	assert.True(t, id.Equal(parsed))
}
