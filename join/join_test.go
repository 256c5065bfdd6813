package join

import (
	"testing"

	"github.com/PypeBros/skiptree/cpe"
	"github.com/PypeBros/skiptree/envelope"
	"github.com/PypeBros/skiptree/ident"
	"github.com/PypeBros/skiptree/neighbour"
	"github.com/PypeBros/skiptree/space"
	"github.com/PypeBros/skiptree/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRand struct{ f float64 }

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) Intn(int) int     { return 0 }

func ref(name string, pid float64) neighbour.NodeRef {
	return neighbour.NodeRef{NameID: ident.NewNameID(name), PartID: ident.PartitionID(pid), CPE: cpe.New()}
}

func TestStartAndHandleSeedJoin(t *testing.T) {
	joiner := ref("j", 0.5)
	seed := ref("s", 0.3)

	outer := StartSkipNetJoin(joiner, seed)
	require.Equal(t, envelope.RouteDirect, outer.Kind)
	msg, ok := outer.Payload.(envelope.EncapsulatedMessage)
	require.True(t, ok)

	inner, ok := HandleSeed(seed, msg)
	require.True(t, ok)
	req, ok := inner.Payload.(envelope.SNJoinRequest)
	require.True(t, ok)
	assert.Equal(t, envelope.SNJoinRouting, req.State)

	_, ok = HandleSeed(joiner, msg)
	assert.False(t, ok, "the joiner's own seed request is dropped")
}

func TestHandleRoutedRepliesDirectlyToJoiner(t *testing.T) {
	self := ref("m", 0.5)
	nh := neighbour.New(self, 16)
	req := envelope.SNJoinRequest{JoiningNode: ref("j", 0.7)}

	out := HandleRouted(nh, req)
	require.Equal(t, envelope.RouteDirect, out.Kind)
	assert.True(t, out.Dest.NameID.Equal(req.JoiningNode.NameID))
}

func TestHandleSNJoinReplyPicksContactAndBuildsAsk(t *testing.T) {
	self := ref("m", 0.5)
	nh := neighbour.New(self, 16)
	reply := envelope.SNJoinReply{Neighbours: []neighbour.NodeRef{ref("n", 0.6)}}

	out, err := HandleSNJoinReply(nh, reply)
	require.NoError(t, err)
	require.Equal(t, envelope.RouteDirect, out.Kind)
	req, ok := out.Payload.(envelope.STJoinRequest)
	require.True(t, ok)
	assert.Equal(t, envelope.STJoinAsk, req.Phase)
}

func TestSkipTreeJoinFullCycle(t *testing.T) {
	wSelf := ref("w", 0.5)
	wNH := neighbour.New(wSelf, 16)
	wCPE := cpe.New()
	wStore := store.New(fixedRand{f: 0.5})
	wStore.Add(pointPart("x", 5), "a")
	wStore.Add(pointPart("x", 7), "b")
	wStore.Add(pointPart("x", 3), "c")
	wProc := NewProcessor(wCPE, wStore, wNH, fixedRand{f: 0.5})

	jSelf := ref("z", 0)
	proposeMsg := wProc.HandleAsk(jSelf)
	require.Equal(t, envelope.RouteDirect, proposeMsg.Kind)
	proposeReply, ok := proposeMsg.Payload.(envelope.STJoinReply)
	require.True(t, ok)
	require.Equal(t, envelope.STJoinPropose, proposeReply.Phase)
	assert.True(t, wProc.Busy)
	require.NotNil(t, wProc.Pending)

	jNH := neighbour.New(jSelf, 16)
	jCPE := cpe.New()
	jStore := store.New(fixedRand{f: 0.5})
	jProc := NewProcessor(jCPE, jStore, jNH, fixedRand{f: 0.5})

	acceptMsg := jProc.HandlePropose(wSelf, proposeReply)
	require.Equal(t, envelope.RouteDirect, acceptMsg.Kind)
	acceptReq, ok := acceptMsg.Payload.(envelope.STJoinRequest)
	require.True(t, ok)
	assert.Equal(t, envelope.STJoinAccept, acceptReq.Phase)
	assert.True(t, jProc.Busy)
	assert.Equal(t, 1, jCPE.Len())

	commit, err := wProc.HandleAccept(jSelf)
	require.NoError(t, err)
	require.Equal(t, envelope.RouteDirect, commit.Reply.Kind)
	confirmReply, ok := commit.Reply.Payload.(envelope.STJoinReply)
	require.True(t, ok)
	assert.Equal(t, envelope.STJoinConfirm, confirmReply.Phase)
	assert.False(t, wProc.Busy)
	assert.Nil(t, wProc.Pending)
	assert.Equal(t, 1, wCPE.Len())

	// Post-join partition-id ordering must match the committed side.
	if acceptReq.JoiningNode.NameID.Less(wSelf.NameID) {
		assert.True(t, proposeReply.PartitionID < wSelf.PartID)
	}

	// Every item previously at W now lives at exactly one of {W, J}.
	total := wStore.Len() + len(proposeReply.Data)
	assert.Equal(t, 3, total)
}

func TestHandleAskRejectsWhenBusy(t *testing.T) {
	self := ref("w", 0.5)
	nh := neighbour.New(self, 16)
	c := cpe.New()
	s := store.New(fixedRand{f: 0.5})
	p := NewProcessor(c, s, nh, fixedRand{f: 0.5})
	p.Busy = true

	out := p.HandleAsk(ref("z", 0))
	errPayload, ok := out.Payload.(envelope.STJoinError)
	require.True(t, ok)
	assert.Equal(t, envelope.STJoinErrorBusy, errPayload.Reason)
}

func pointPart(dim space.Dimension, v float64) *space.SpacePart {
	p := space.New()
	p.SetComponent(space.NewPointComponent(dim, v))
	return p
}
