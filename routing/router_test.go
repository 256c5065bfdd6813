package routing

import (
	"testing"

	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/space"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfRef(name string, pid float64) neighbour.NodeRef {
	return neighbour.NodeRef{NameID: ident.NewNameID(name), PartID: ident.PartitionID(pid), CPE: cpe.New()}
}

func pointPart(dim space.Dimension, v float64) *space.SpacePart {
	p := space.New()
	p.SetComponent(space.NewPointComponent(dim, v))
	return p
}

func TestRouteDirectLocalAndRemote(t *testing.T) {
	self := selfRef("m", 0.5)
	nh := neighbour.New(self, 16)
	r := New(cpe.New(), nh)

	e := envelope.NewRouteDirect(self, "payload")
	dests, err := r.Route(e)
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.True(t, dests[0].Local)

	other := selfRef("z", 0.9)
	e2 := envelope.NewRouteDirect(other, "payload")
	dests2, err := r.Route(e2)
	require.NoError(t, err)
	assert.False(t, dests2[0].Local)
	assert.True(t, dests2[0].Peer.NameID.Equal(other.NameID))
}

func TestRouteByNameArrivesLocallyWithoutNeighbours(t *testing.T) {
	self := selfRef("m", 0.5)
	nh := neighbour.New(self, 16)
	r := New(cpe.New(), nh)

	e := envelope.NewRouteByName(ident.NewNameID("z"), "payload")
	dests, err := r.Route(e)
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.True(t, dests[0].Local)
}

func TestRouteByNameStepsTowardCloserNeighbour(t *testing.T) {
	self := selfRef("m", 0.5)
	nh := neighbour.New(self, 16)
	nh.Ring(0).AddNeighbour(selfRef("n", 0.6))
	r := New(cpe.New(), nh)

	e := envelope.NewRouteByName(ident.NewNameID("z"), "payload")
	dests, err := r.Route(e)
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.False(t, dests[0].Local)
	assert.Equal(t, "n", dests[0].Peer.NameID.String())
}

func TestRouteByCPESinglePeerDeliversLocally(t *testing.T) {
	self := selfRef("m", 0.5)
	nh := neighbour.New(self, 16)
	r := New(cpe.New(), nh) // empty CPE: single-peer network always "here"

	query := space.New()
	query.SetComponent(space.NewRangeComponent("x", space.Range[float64]{
		Min: fp(0), Max: fp(10), MinIncluded: true, MaxIncluded: true,
	}))
	e := envelope.NewRouteByCPE(query, true, "lookup")
	dests, err := r.Route(e)
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.True(t, dests[0].Local)
}

func TestRouteByCPEInsertionNonForkingSingleTarget(t *testing.T) {
	self := selfRef("m", 0.5)
	nh := neighbour.New(self, 16)
	r := New(cpe.New(), nh)

	e := envelope.NewRouteByCPE(pointPart("x", 5), false, "insert")
	dests, err := r.Route(e)
	require.NoError(t, err)
	require.Len(t, dests, 1)
	assert.True(t, dests[0].Local)
}

func TestRouteTTLExpires(t *testing.T) {
	self := selfRef("m", 0.5)
	nh := neighbour.New(self, 16)
	r := New(cpe.New(), nh)

	e := envelope.NewRouteDirect(self, "payload")
	e.TTL = 0
	_, err := r.Route(e)
	require.Error(t, err)
}

func fp(v float64) *float64 { return &v }
