package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiesBetweenMonotonicAndWrap(t *testing.T) {
	a, b, c := NewNameID("a"), NewNameID("b"), NewNameID("c")

	assert.True(t, LiesBetween(a, b, c), "a<b<c")
	assert.True(t, LiesBetween(b, c, a), "wraps once: b<c<a")
	assert.True(t, LiesBetween(c, a, b), "wraps once: c<a<b")
	assert.False(t, LiesBetween(a, c, b), "a<c<b is not between")
	assert.True(t, LiesBetween(a, b, a), "c==a degenerate ring")
}

func TestLiesBetweenDirectionNoWrap(t *testing.T) {
	a, b, c := NewNameID("a"), NewNameID("b"), NewNameID("c")

	assert.True(t, LiesBetweenDirection(RIGHT, a, b, c, false))
	assert.False(t, LiesBetweenDirection(RIGHT, b, c, a, false), "needs wrap, disallowed")
	assert.True(t, LiesBetweenDirection(RIGHT, b, c, a, true), "wrap allowed")

	assert.True(t, LiesBetweenDirection(LEFT, c, b, a, false))
}
