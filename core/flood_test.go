package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirlia/vlsr/state"
)

func TestOriginateLSAAdvertisesOnlyFullLinks(t *testing.T) {
	s := newTestState(t, "a", "10.0.1.0/24")
	addTestLink(s, "b", 1, state.LinkFull)
	addTestLink(s, "c", 2, state.LinkInit)
	fx := &fxRecorder{}

	OriginateLSA(s, fx)

	require.Len(t, fx.floods, 1)
	lsa := fx.floods[0].lsa
	assert.Equal(t, state.RouterID("a"), lsa.Origin)
	assert.EqualValues(t, 1, lsa.SeqNum)
	require.Len(t, lsa.Links, 1)
	assert.Equal(t, state.RouterID("b"), lsa.Links[0].Neighbor)
	assert.Equal(t, 1, fx.spf)

	item := s.LSDB.Get("a")
	require.NotNil(t, item)
	assert.EqualValues(t, 1, item.Value().SeqNum)
	assert.EqualValues(t, 1, s.Stats.LSAsOriginated)
}

func TestOriginateLSABumpsSeqNumEveryTime(t *testing.T) {
	s := newTestState(t, "a")
	fx := &fxRecorder{}

	OriginateLSA(s, fx)
	OriginateLSA(s, fx)
	OriginateLSA(s, fx)

	assert.EqualValues(t, 3, s.SeqNum)
	assert.EqualValues(t, 3, s.LSDB.Get("a").Value().SeqNum)
}

func TestHandleLSANewerIsAcceptedAndFlooded(t *testing.T) {
	s := newTestState(t, "a")
	addTestLink(s, "b", 1, state.LinkFull)
	addTestLink(s, "c", 1, state.LinkFull)
	fx := &fxRecorder{}

	lsa := lsaOf("d", 5, map[state.RouterID]int{"c": 1}, "10.0.4.0/24")
	HandleLSA(s, fx, "b", lsa)

	require.NotNil(t, s.LSDB.Get("d"))
	assert.EqualValues(t, 5, s.LSDB.Get("d").Value().SeqNum)
	require.Len(t, fx.floods, 1)
	assert.Equal(t, state.RouterID("b"), fx.floods[0].except)
	assert.Equal(t, 1, fx.spf)
	assert.EqualValues(t, 1, s.Stats.LSAsAccepted)
}

func TestHandleLSAStaleIsSuppressed(t *testing.T) {
	s := newTestState(t, "a")
	addTestLink(s, "b", 1, state.LinkFull)
	fx := &fxRecorder{}

	HandleLSA(s, fx, "b", lsaOf("d", 5, nil))
	fx.floods = nil
	fx.spf = 0

	// same seqno again, then an older one
	HandleLSA(s, fx, "b", lsaOf("d", 5, nil))
	HandleLSA(s, fx, "b", lsaOf("d", 3, nil))

	assert.Empty(t, fx.floods)
	assert.Zero(t, fx.spf)
	assert.EqualValues(t, 5, s.LSDB.Get("d").Value().SeqNum)
	assert.EqualValues(t, 2, s.Stats.LSAsSuppressed)
}

func TestHandleLSAOwnEchoLeapfrogsSeqNum(t *testing.T) {
	s := newTestState(t, "a")
	addTestLink(s, "b", 1, state.LinkFull)
	fx := &fxRecorder{}
	s.SeqNum = 3

	// a stale copy of our own LSA is circulating above our seqno
	HandleLSA(s, fx, "b", lsaOf("a", 7, map[state.RouterID]int{"z": 1}))

	assert.EqualValues(t, 8, s.SeqNum)
	require.Len(t, fx.floods, 1)
	assert.EqualValues(t, 8, fx.floods[0].lsa.SeqNum)
	// the re-originated LSA describes our real adjacencies, not the echo's
	require.Len(t, fx.floods[0].lsa.Links, 1)
	assert.Equal(t, state.RouterID("b"), fx.floods[0].lsa.Links[0].Neighbor)
}

func TestHandleLSAOwnEqualEchoIsDropped(t *testing.T) {
	s := newTestState(t, "a")
	addTestLink(s, "b", 1, state.LinkFull)
	fx := &fxRecorder{}
	OriginateLSA(s, fx)
	fx.floods = nil
	fx.spf = 0

	// our own LSA echoed back at the current seqno must not re-flood,
	// otherwise two routers would bounce it between them forever
	item := s.LSDB.Get("a")
	require.NotNil(t, item)
	HandleLSA(s, fx, "b", item.Value())

	assert.EqualValues(t, 1, s.SeqNum)
	assert.Empty(t, fx.floods)
	assert.Zero(t, fx.spf)
	assert.EqualValues(t, 1, s.Stats.LSAsSuppressed)
}

func TestHandleLSAOwnStaleEchoIsDropped(t *testing.T) {
	s := newTestState(t, "a")
	addTestLink(s, "b", 1, state.LinkFull)
	fx := &fxRecorder{}
	s.SeqNum = 3

	HandleLSA(s, fx, "b", lsaOf("a", 2, nil))

	assert.EqualValues(t, 3, s.SeqNum)
	assert.Empty(t, fx.floods)
	assert.Zero(t, fx.spf)
}

func TestPushDatabaseSkipsTargetsOwnLSA(t *testing.T) {
	s := newTestState(t, "a")
	fx := &fxRecorder{}
	OriginateLSA(s, fx)
	HandleLSA(s, fx, "b", lsaOf("b", 4, nil))
	HandleLSA(s, fx, "b", lsaOf("d", 9, nil))
	fx.sends = nil

	PushDatabase(s, fx, "b")

	require.Len(t, fx.sends, 2)
	got := map[state.RouterID]bool{}
	for _, snd := range fx.sends {
		assert.Equal(t, state.RouterID("b"), snd.to)
		got[snd.lsa.Origin] = true
	}
	assert.True(t, got["a"])
	assert.True(t, got["d"])
}
