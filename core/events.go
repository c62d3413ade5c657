package core

import "github.com/lirlia/vlsr/state"

// EventType enumerates topology and routing notifications emitted by the
// manager.
type EventType string

const (
	EventRouterAdded    EventType = "router_added"
	EventRouterRemoved  EventType = "router_removed"
	EventLinkUp         EventType = "link_up"
	EventLinkDown       EventType = "link_down"
	EventRoutingUpdated EventType = "routing_table_updated"
)

// Event is a best-effort notification. Delivery may drop or duplicate under
// load; consumers needing ground truth should read router snapshots instead.
type Event struct {
	Type   EventType
	Router state.RouterID
	// Peer is set for link events.
	Peer state.RouterID
	// Routes is set for routing table updates.
	Routes []state.RoutingEntry
}
