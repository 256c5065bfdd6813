package cpe

import (
	"testing"

	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/internal/errs"
	"github.com/PypeBros/skiptree/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func point(dim space.Dimension, v float64) *space.SpacePart {
	sp := space.New()
	sp.SetComponent(space.NewPointComponent(dim, v))
	return sp
}

func TestEmptyCPEAlwaysHere(t *testing.T) {
	c := New()
	left, here, right, err := c.WhichSideSpace(point("x", 42), false)
	require.NoError(t, err)
	assert.True(t, here)
	assert.False(t, left)
	assert.False(t, right)
}

func TestWhichSideSpaceSingleSplit(t *testing.T) {
	// P0 keeps x<=5, P1 (this CPE) keeps x>5.
	c := New()
	c.AddNode(InternalNode{Direction: ident.RIGHT, Dim: "x", Value: 5})

	left, here, right, err := c.WhichSideSpace(point("x", 7), false)
	require.NoError(t, err)
	assert.True(t, here)
	assert.False(t, left)
	assert.False(t, right)

	left, here, right, err = c.WhichSideSpace(point("x", 3), false)
	require.NoError(t, err)
	assert.False(t, here)
	assert.True(t, left)
	assert.False(t, right)
}

func TestWhichSideSpaceMissingDimensionNonForkingFails(t *testing.T) {
	c := New()
	c.AddNode(InternalNode{Direction: ident.LEFT, Dim: "x", Value: 5})

	_, _, _, err := c.WhichSideSpace(space.New(), false)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.MissingDimension, e.Kind)
}

func TestWhichSideSpaceMissingDimensionForks(t *testing.T) {
	// CPE [(LEFT,x,5),(RIGHT,y,2)]: a lookup on x only forks on the
	// missing y dimension and must reach both sides of the y split
	// (spec §8 scenario 4).
	c := New()
	c.AddNode(InternalNode{Direction: ident.LEFT, Dim: "x", Value: 5})
	c.AddNode(InternalNode{Direction: ident.RIGHT, Dim: "y", Value: 2})

	part := space.New()
	part.SetComponent(space.NewRangeComponent("x", space.Range[float64]{
		Min: fp(0), Max: fp(10), MinIncluded: true, MaxIncluded: true,
	}))

	left, here, right, err := c.WhichSideSpace(part, true)
	require.NoError(t, err)
	assert.True(t, left || here || right, "at least one side must be reachable")
	assert.True(t, here, "this leaf's side of the y split")
	assert.True(t, left, "the other side of the y split")
}

func TestGetRangeLeafToRoot(t *testing.T) {
	c := New()
	c.AddNode(InternalNode{Direction: ident.RIGHT, Dim: "x", Value: 2})
	c.AddNode(InternalNode{Direction: ident.LEFT, Dim: "x", Value: 8})

	r := c.GetRange("x")
	require.NotNil(t, r.Min)
	require.NotNil(t, r.Max)
	assert.Equal(t, 2.0, *r.Min)
	assert.False(t, r.MinIncluded)
	assert.Equal(t, 8.0, *r.Max)
	assert.True(t, r.MaxIncluded)
}

func fp(v float64) *float64 { return &v }
