package state

import (
	"net/netip"
	"sort"

	"github.com/gaissmai/bart"
)

// RoutingTable is an immutable snapshot of a router's forwarding table.
// Lookups run against a prefix trie; Entries returns the rows in a stable
// order. Snapshots are swapped atomically by the router, so readers never
// block protocol processing.
type RoutingTable struct {
	entries []RoutingEntry
	lpm     bart.Table[RoutingEntry]
}

// NewRoutingTable builds a snapshot from SPF-computed routes and direct
// routes. When both carry the same destination prefix, the direct entry wins.
func NewRoutingTable(spf []RoutingEntry, direct []RoutingEntry) *RoutingTable {
	byDest := make(map[netip.Prefix]RoutingEntry, len(spf)+len(direct))
	for _, e := range spf {
		byDest[e.Dest] = e
	}
	for _, e := range direct {
		byDest[e.Dest] = e
	}

	t := &RoutingTable{
		entries: make([]RoutingEntry, 0, len(byDest)),
	}
	for _, e := range byDest {
		t.entries = append(t.entries, e)
		t.lpm.Insert(e.Dest, e)
	}
	sort.Slice(t.entries, func(i, j int) bool {
		a, b := t.entries[i], t.entries[j]
		if a.Dest.Addr() != b.Dest.Addr() {
			return a.Dest.Addr().Less(b.Dest.Addr())
		}
		return a.Dest.Bits() < b.Dest.Bits()
	})
	return t
}

// Entries returns a copy of all rows, sorted by destination prefix.
func (t *RoutingTable) Entries() []RoutingEntry {
	out := make([]RoutingEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Lookup performs a longest-prefix match for dst.
func (t *RoutingTable) Lookup(dst netip.Addr) (RoutingEntry, bool) {
	return t.lpm.Lookup(dst)
}

// Len returns the number of rows in the snapshot.
func (t *RoutingTable) Len() int {
	return len(t.entries)
}
