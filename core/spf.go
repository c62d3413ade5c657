package core

import (
	"container/heap"
	"net/netip"

	"github.com/lirlia/vlsr/state"
)

// Path is the shortest-path result for one destination router: the total
// metric and the first hop taken from the root.
type Path struct {
	FirstHop state.RouterID
	Metric   int
}

type spfItem struct {
	router   state.RouterID
	dist     int
	firstHop state.RouterID
	index    int
}

type spfQueue []*spfItem

func (q spfQueue) Len() int           { return len(q) }
func (q spfQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q spfQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *spfQueue) Push(x any)        { it := x.(*spfItem); it.index = len(*q); *q = append(*q, it) }
func (q *spfQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return it
}

// ShortestPaths runs Dijkstra over the LSDB from root. An edge u->v only
// counts if v's LSA also lists u, so a half-dead link never carries traffic.
// The edge weight is the cost u advertises for v.
func ShortestPaths(db map[state.RouterID]state.LSA, root state.RouterID) map[state.RouterID]Path {
	paths := make(map[state.RouterID]Path)
	if _, ok := db[root]; !ok {
		return paths
	}

	listed := func(from, to state.RouterID) (int, bool) {
		lsa, ok := db[from]
		if !ok {
			return 0, false
		}
		for _, l := range lsa.Links {
			if l.Neighbor == to {
				return l.Cost, true
			}
		}
		return 0, false
	}

	dist := map[state.RouterID]int{root: 0}
	visited := make(map[state.RouterID]bool)
	q := &spfQueue{}
	heap.Init(q)
	heap.Push(q, &spfItem{router: root})

	for q.Len() > 0 {
		cur := heap.Pop(q).(*spfItem)
		if visited[cur.router] {
			continue
		}
		visited[cur.router] = true
		if cur.router != root {
			paths[cur.router] = Path{FirstHop: cur.firstHop, Metric: cur.dist}
		}
		for _, edge := range db[cur.router].Links {
			// symmetry check: both ends must advertise the adjacency
			if _, ok := listed(edge.Neighbor, cur.router); !ok {
				continue
			}
			nd := cur.dist + edge.Cost
			if best, seen := dist[edge.Neighbor]; seen && nd >= best {
				continue
			}
			dist[edge.Neighbor] = nd
			hop := cur.firstHop
			if cur.router == root {
				hop = edge.Neighbor
			}
			heap.Push(q, &spfItem{router: edge.Neighbor, dist: nd, firstHop: hop})
		}
	}
	return paths
}

// RoutesFromPaths turns SPF results into routing entries: one row per prefix
// advertised by each reachable remote router, pointing at the link address of
// the first hop.
func RoutesFromPaths(s *state.State, db map[state.RouterID]state.LSA, paths map[state.RouterID]Path) []state.RoutingEntry {
	var routes []state.RoutingEntry
	for dest, path := range paths {
		link, ok := s.Links[path.FirstHop]
		if !ok || link.State != state.LinkFull {
			continue
		}
		for _, pfx := range db[dest].Prefixes {
			routes = append(routes, state.RoutingEntry{
				Dest:    pfx,
				NextHop: link.RemoteAddr,
				Via:     dest,
				Metric:  path.Metric,
				Type:    state.RouteSPF,
			})
		}
	}
	return routes
}

// DirectRoutes builds the rows that never depend on SPF: our own prefixes and
// a host route to each directly attached peer.
func DirectRoutes(s *state.State) []state.RoutingEntry {
	var routes []state.RoutingEntry
	for _, pfx := range s.Prefixes {
		routes = append(routes, state.RoutingEntry{
			Dest:   pfx,
			Via:    s.ID,
			Metric: 0,
			Type:   state.RouteDirect,
		})
	}
	for _, l := range s.Links {
		if !l.RemoteAddr.IsValid() {
			continue
		}
		routes = append(routes, state.RoutingEntry{
			Dest:    netip.PrefixFrom(l.RemoteAddr, l.RemoteAddr.BitLen()),
			NextHop: l.RemoteAddr,
			Via:     l.Neighbor,
			Metric:  l.Cost,
			Type:    state.RouteDirect,
		})
	}
	return routes
}
