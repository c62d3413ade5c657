package core

import (
	"net/netip"

	"github.com/jellydator/ttlcache/v3"
	"github.com/lirlia/vlsr/state"
)

// Effects is the set of side effects the protocol logic can request. The
// live router implements it against real link channels; tests substitute a
// recorder. Keeping the logic itself as plain functions over State makes it
// deterministic and trivially testable.
type Effects interface {
	// SendLSA sends an LSA to one Full neighbour.
	SendLSA(to state.RouterID, lsa state.LSA)
	// FloodLSA sends an LSA to every Full neighbour except `except` and
	// except the LSA's origin.
	FloodLSA(lsa state.LSA, except state.RouterID)
	// ScheduleSPF requests a debounced SPF run.
	ScheduleSPF()
}

// OriginateLSA builds a fresh self LSA from the current Full adjacencies and
// owned prefixes, installs it, and floods it. Every call bumps the sequence
// number, so receivers always prefer the newest description.
func OriginateLSA(s *state.State, fx Effects) {
	s.SeqNum++
	lsa := state.LSA{
		Origin:   s.ID,
		SeqNum:   s.SeqNum,
		Prefixes: append([]netip.Prefix(nil), s.Prefixes...),
	}
	for _, l := range s.Links {
		if l.State == state.LinkFull {
			lsa.Links = append(lsa.Links, state.LSALink{Neighbor: l.Neighbor, Cost: l.Cost})
		}
	}
	s.LSDB.Set(s.ID, lsa, ttlcache.NoTTL)
	s.Stats.LSAsOriginated++
	fx.FloodLSA(lsa, "")
	fx.ScheduleSPF()
}

// HandleLSA processes an LSA received from neighbour `from`. Stale or
// duplicate sequence numbers are dropped, which is what stops flooding loops.
// A copy of our own LSA with a sequence number above ours means a stale
// self-description is circulating; we leapfrog it and re-flood. An echo at
// our current sequence number is just flooding working and is dropped.
func HandleLSA(s *state.State, fx Effects, from state.RouterID, lsa state.LSA) {
	if lsa.Origin == s.ID {
		if lsa.SeqNum > s.SeqNum {
			s.SeqNum = lsa.SeqNum
			OriginateLSA(s, fx)
		} else {
			s.Stats.LSAsSuppressed++
		}
		return
	}
	if cur := s.LSDB.Get(lsa.Origin); cur != nil && lsa.SeqNum <= cur.Value().SeqNum {
		s.Stats.LSAsSuppressed++
		return
	}
	s.LSDB.Set(lsa.Origin, lsa, ttlcache.DefaultTTL)
	s.Stats.LSAsAccepted++
	fx.FloodLSA(lsa, from)
	fx.ScheduleSPF()
}

// PushDatabase sends the entire LSDB to one neighbour. Called when an
// adjacency first reaches Full so the new neighbour converges without waiting
// for organic refreshes. The neighbour's own LSA is skipped; it is the
// authority on itself.
func PushDatabase(s *state.State, fx Effects, to state.RouterID) {
	for origin, item := range s.LSDB.Items() {
		if origin == to || item.IsExpired() {
			continue
		}
		fx.SendLSA(to, item.Value())
	}
}
