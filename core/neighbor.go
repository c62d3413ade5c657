package core

import (
	"slices"
	"time"

	"github.com/lirlia/vlsr/protocol"
	"github.com/lirlia/vlsr/state"
)

// BuildHello assembles the Hello advertised on every link: our id plus the
// neighbours we currently hear (anything past Down).
func BuildHello(s *state.State) *protocol.Hello {
	h := &protocol.Hello{Router: s.ID}
	for id, l := range s.Links {
		if l.State != state.LinkDown {
			h.Seen = append(h.Seen, id)
		}
	}
	slices.Sort(h.Seen)
	return h
}

// HandleHello advances the adjacency state machine for the link the Hello
// arrived on. Hearing the neighbour moves Down to Init; being listed in its
// Seen set proves the link is bidirectional, and on a point-to-point link
// TwoWay immediately graduates to Full. A Hello that stops listing us
// regresses the link to Init and retracts it from our LSA.
func HandleHello(s *state.State, fx Effects, now time.Time, from state.RouterID, h *protocol.Hello) {
	if h.Router != from {
		// a Hello must describe the router on the other end of the link it
		// arrived on, anything else cannot be trusted to drive the FSM
		s.Stats.Malformed++
		s.Log.Warn("dropping hello with mismatched sender", "link", from, "claimed", h.Router)
		return
	}
	link, ok := s.Links[from]
	if !ok {
		s.Log.Debug("hello from unknown neighbour", "neighbour", from)
		return
	}
	s.Stats.HellosReceived++
	link.LastHello = now

	old := link.State
	if slices.Contains(h.Seen, s.ID) {
		link.State = state.LinkFull
	} else {
		link.State = state.LinkInit
	}
	if link.State == old {
		return
	}
	s.Log.Debug("adjacency changed", "neighbour", link.Neighbor, "from", old, "to", link.State)

	if link.State == state.LinkFull {
		PushDatabase(s, fx, link.Neighbor)
		OriginateLSA(s, fx)
	} else if old == state.LinkFull {
		// one-way regression: the edge is no longer usable, retract it
		OriginateLSA(s, fx)
	}
}

// CheckDeadNeighbors regresses links that have been Hello-silent past the
// dead interval, re-originates if any adjacency was lost, and purges expired
// LSAs from the database.
func CheckDeadNeighbors(s *state.State, fx Effects, now time.Time) {
	lost := false
	for _, l := range s.Links {
		if l.State == state.LinkDown {
			continue
		}
		if now.Sub(l.LastHello) > state.DeadInterval() {
			s.Log.Info("neighbour dead", "neighbour", l.Neighbor, "last_hello", l.LastHello)
			if l.State == state.LinkFull {
				lost = true
			}
			l.State = state.LinkDown
		}
	}
	if before := s.LSDB.Len(); before > 0 {
		s.LSDB.DeleteExpired()
		if s.LSDB.Len() != before {
			fx.ScheduleSPF()
		}
	}
	if lost {
		OriginateLSA(s, fx)
	}
}
