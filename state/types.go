package state

import (
	"net/netip"
	"time"
)

// RouterID is the unique name of a router within a topology.
type RouterID string

// LinkState is the adjacency state of a point-to-point link.
type LinkState int

const (
	// LinkDown means nothing has been heard from the neighbour.
	LinkDown LinkState = iota
	// LinkInit means we hear the neighbour but it does not yet list us.
	LinkInit
	// LinkTwoWay means both sides hear each other. On point-to-point links
	// this is transited instantly on the way to Full.
	LinkTwoWay
	// LinkFull means the adjacency is usable for routing.
	LinkFull
)

func (s LinkState) String() string {
	switch s {
	case LinkDown:
		return "down"
	case LinkInit:
		return "init"
	case LinkTwoWay:
		return "two-way"
	case LinkFull:
		return "full"
	default:
		return "unknown"
	}
}

// NeighborLink is one end of a point-to-point link. It is owned by the
// router's dispatch loop; the listener goroutine only reads Recv and Done.
type NeighborLink struct {
	Neighbor   RouterID
	LocalAddr  netip.Addr
	RemoteAddr netip.Addr
	Cost       int

	State     LinkState
	LastHello time.Time

	Send chan<- []byte
	Recv <-chan []byte
	// Done is closed when the link is removed, stopping its listener.
	Done chan struct{}
}

// LSALink is one adjacency advertised inside an LSA.
type LSALink struct {
	Neighbor RouterID
	Cost     int
}

// LSA is a router's self-description: its usable adjacencies and the
// prefixes it owns. Higher sequence numbers supersede lower ones.
type LSA struct {
	Origin   RouterID
	SeqNum   uint64
	Links    []LSALink
	Prefixes []netip.Prefix
}

// RouteType distinguishes computed routes from locally attached ones.
type RouteType int

const (
	RouteSPF RouteType = iota
	RouteDirect
)

func (t RouteType) String() string {
	if t == RouteDirect {
		return "direct"
	}
	return "spf"
}

// RoutingEntry is one row of a router's routing table.
type RoutingEntry struct {
	Dest    netip.Prefix
	NextHop netip.Addr
	Via     RouterID
	Metric  int
	Type    RouteType
}

// Stats counts protocol activity. Only ever mutated on the dispatch loop;
// snapshots copy it by value.
type Stats struct {
	HellosSent      uint64
	HellosReceived  uint64
	LSAsOriginated  uint64
	LSAsAccepted    uint64
	LSAsForwarded   uint64
	LSAsSuppressed  uint64
	MessagesDropped uint64
	Malformed       uint64
	SPFRuns         uint64
}
