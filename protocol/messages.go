// Package protocol defines the wire messages routers exchange over link
// channels, and their encoding. Messages are self-contained byte slices so a
// link behaves like a lossy datagram transport.
package protocol

import (
	"fmt"
	"net/netip"

	"github.com/lirlia/vlsr/state"
)

// Hello advertises liveness on a link. Seen carries the set of neighbours the
// sender currently hears, which is how the receiver learns the link is
// bidirectional.
type Hello struct {
	Router state.RouterID
	Seen   []state.RouterID
}

// Link is one adjacency inside a LinkStateUpdate.
type Link struct {
	Neighbor state.RouterID
	Cost     int
}

// LinkStateUpdate carries one LSA. Prefixes travel in CIDR text form; gob
// cannot encode netip values directly.
type LinkStateUpdate struct {
	Origin   state.RouterID
	SeqNum   uint64
	Links    []Link
	Prefixes []string
}

// FromLSA converts an in-memory LSA into its wire form.
func FromLSA(lsa state.LSA) *LinkStateUpdate {
	u := &LinkStateUpdate{
		Origin: lsa.Origin,
		SeqNum: lsa.SeqNum,
	}
	for _, l := range lsa.Links {
		u.Links = append(u.Links, Link{Neighbor: l.Neighbor, Cost: l.Cost})
	}
	for _, p := range lsa.Prefixes {
		u.Prefixes = append(u.Prefixes, p.String())
	}
	return u
}

// ToLSA converts a wire update back into an LSA, validating its contents.
func (u *LinkStateUpdate) ToLSA() (state.LSA, error) {
	lsa := state.LSA{
		Origin: u.Origin,
		SeqNum: u.SeqNum,
	}
	if u.Origin == "" {
		return lsa, fmt.Errorf("%w: update without origin", ErrMalformedMessage)
	}
	for _, l := range u.Links {
		if l.Neighbor == "" || l.Cost <= 0 {
			return lsa, fmt.Errorf("%w: bad link entry for origin %s", ErrMalformedMessage, u.Origin)
		}
		lsa.Links = append(lsa.Links, state.LSALink{Neighbor: l.Neighbor, Cost: l.Cost})
	}
	for _, p := range u.Prefixes {
		pfx, err := netip.ParsePrefix(p)
		if err != nil {
			return lsa, fmt.Errorf("%w: bad prefix %q: %v", ErrMalformedMessage, p, err)
		}
		lsa.Prefixes = append(lsa.Prefixes, pfx)
	}
	return lsa, nil
}
