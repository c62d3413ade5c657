package core

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"testing"
	"time"

	"github.com/lirlia/vlsr/state"
)

// fxRecorder captures requested side effects so the protocol logic can be
// asserted on without running any goroutines.
type fxRecorder struct {
	sends  []sentLSA
	floods []floodedLSA
	spf    int
}

type sentLSA struct {
	to  state.RouterID
	lsa state.LSA
}

type floodedLSA struct {
	lsa    state.LSA
	except state.RouterID
}

func (f *fxRecorder) SendLSA(to state.RouterID, lsa state.LSA) {
	f.sends = append(f.sends, sentLSA{to, lsa})
}

func (f *fxRecorder) FloodLSA(lsa state.LSA, except state.RouterID) {
	f.floods = append(f.floods, floodedLSA{lsa, except})
}

func (f *fxRecorder) ScheduleSPF() {
	f.spf++
}

func newTestState(t *testing.T, id state.RouterID, prefixes ...string) *state.State {
	t.Helper()
	ctx, cancel := context.WithCancelCause(context.Background())
	t.Cleanup(func() { cancel(nil) })
	env := &state.Env{
		ID:              id,
		DispatchChannel: make(chan func(*state.State) error, 16),
		Context:         ctx,
		Cancel:          cancel,
		Log:             slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, p := range prefixes {
		env.Prefixes = append(env.Prefixes, netip.MustParsePrefix(p))
	}
	s := state.NewState(env)
	s.Running = true
	return s
}

var testAddrSeq byte

func addTestLink(s *state.State, neighbor state.RouterID, cost int, st state.LinkState) *state.NeighborLink {
	testAddrSeq += 2
	l := &state.NeighborLink{
		Neighbor:   neighbor,
		LocalAddr:  netip.AddrFrom4([4]byte{10, 200, 0, testAddrSeq}),
		RemoteAddr: netip.AddrFrom4([4]byte{10, 200, 0, testAddrSeq + 1}),
		Cost:       cost,
		State:      st,
		LastHello:  time.Now(),
		Done:       make(chan struct{}),
	}
	s.Links[neighbor] = l
	return l
}

func lsaOf(origin state.RouterID, seq uint64, links map[state.RouterID]int, prefixes ...string) state.LSA {
	lsa := state.LSA{Origin: origin, SeqNum: seq}
	for n, c := range links {
		lsa.Links = append(lsa.Links, state.LSALink{Neighbor: n, Cost: c})
	}
	for _, p := range prefixes {
		lsa.Prefixes = append(lsa.Prefixes, netip.MustParsePrefix(p))
	}
	return lsa
}
