package core

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirlia/vlsr/state"
)

// symmetricDB builds an LSDB where every listed edge is advertised by both
// ends.
func symmetricDB(edges map[[2]state.RouterID]int) map[state.RouterID]state.LSA {
	db := map[state.RouterID]state.LSA{}
	add := func(from, to state.RouterID, cost int) {
		lsa := db[from]
		lsa.Origin = from
		lsa.SeqNum = 1
		lsa.Links = append(lsa.Links, state.LSALink{Neighbor: to, Cost: cost})
		db[from] = lsa
	}
	for e, cost := range edges {
		add(e[0], e[1], cost)
		add(e[1], e[0], cost)
	}
	return db
}

func TestShortestPathsPicksCheapestRoute(t *testing.T) {
	// a--1--b--1--c, plus a direct a--5--c
	db := symmetricDB(map[[2]state.RouterID]int{
		{"a", "b"}: 1,
		{"b", "c"}: 1,
		{"a", "c"}: 5,
	})

	paths := ShortestPaths(db, "a")

	require.Contains(t, paths, state.RouterID("c"))
	assert.Equal(t, 2, paths["c"].Metric)
	assert.Equal(t, state.RouterID("b"), paths["c"].FirstHop)
	assert.Equal(t, 1, paths["b"].Metric)
}

func TestShortestPathsAfterEdgeLoss(t *testing.T) {
	// same triangle with the a-b edge gone: c is now reached directly
	db := symmetricDB(map[[2]state.RouterID]int{
		{"b", "c"}: 1,
		{"a", "c"}: 5,
	})

	paths := ShortestPaths(db, "a")

	assert.Equal(t, 5, paths["c"].Metric)
	assert.Equal(t, state.RouterID("c"), paths["c"].FirstHop)
	assert.Equal(t, 6, paths["b"].Metric)
	assert.Equal(t, state.RouterID("c"), paths["b"].FirstHop)
}

func TestShortestPathsIgnoresAsymmetricEdges(t *testing.T) {
	// b claims an edge to c, but c does not claim it back
	db := symmetricDB(map[[2]state.RouterID]int{
		{"a", "b"}: 1,
	})
	db["c"] = state.LSA{Origin: "c", SeqNum: 1}
	b := db["b"]
	b.Links = append(b.Links, state.LSALink{Neighbor: "c", Cost: 1})
	db["b"] = b

	paths := ShortestPaths(db, "a")

	assert.NotContains(t, paths, state.RouterID("c"))
}

func TestShortestPathsUnknownRoot(t *testing.T) {
	db := symmetricDB(map[[2]state.RouterID]int{{"a", "b"}: 1})
	assert.Empty(t, ShortestPaths(db, "z"))
}

func TestShortestPathsDisconnectedIsland(t *testing.T) {
	db := symmetricDB(map[[2]state.RouterID]int{
		{"a", "b"}: 1,
		{"x", "y"}: 1,
	})

	paths := ShortestPaths(db, "a")

	assert.Contains(t, paths, state.RouterID("b"))
	assert.NotContains(t, paths, state.RouterID("x"))
	assert.NotContains(t, paths, state.RouterID("y"))
}

func TestRoutesFromPathsMapsPrefixesToFirstHop(t *testing.T) {
	s := newTestState(t, "a")
	link := addTestLink(s, "b", 1, state.LinkFull)

	db := symmetricDB(map[[2]state.RouterID]int{
		{"a", "b"}: 1,
		{"b", "c"}: 1,
	})
	c := db["c"]
	c.Prefixes = []netip.Prefix{netip.MustParsePrefix("10.0.3.0/24")}
	db["c"] = c

	paths := ShortestPaths(db, "a")
	routes := RoutesFromPaths(s, db, paths)

	require.Len(t, routes, 1)
	assert.Equal(t, netip.MustParsePrefix("10.0.3.0/24"), routes[0].Dest)
	assert.Equal(t, link.RemoteAddr, routes[0].NextHop)
	assert.Equal(t, state.RouterID("c"), routes[0].Via)
	assert.Equal(t, 2, routes[0].Metric)
	assert.Equal(t, state.RouteSPF, routes[0].Type)
}

func TestRoutesFromPathsSkipsNonFullFirstHop(t *testing.T) {
	s := newTestState(t, "a")
	addTestLink(s, "b", 1, state.LinkInit)

	db := symmetricDB(map[[2]state.RouterID]int{{"a", "b"}: 1})
	b := db["b"]
	b.Prefixes = []netip.Prefix{netip.MustParsePrefix("10.0.2.0/24")}
	db["b"] = b

	routes := RoutesFromPaths(s, db, ShortestPaths(db, "a"))

	assert.Empty(t, routes)
}

func TestDirectRoutesCoverOwnPrefixesAndPeers(t *testing.T) {
	s := newTestState(t, "a", "10.0.1.0/24")
	link := addTestLink(s, "b", 3, state.LinkDown)

	routes := DirectRoutes(s)

	require.Len(t, routes, 2)
	byDest := map[netip.Prefix]state.RoutingEntry{}
	for _, r := range routes {
		byDest[r.Dest] = r
	}
	own := byDest[netip.MustParsePrefix("10.0.1.0/24")]
	assert.Equal(t, state.RouteDirect, own.Type)
	assert.Equal(t, 0, own.Metric)

	host := byDest[netip.PrefixFrom(link.RemoteAddr, 32)]
	assert.Equal(t, state.RouteDirect, host.Type)
	assert.Equal(t, link.RemoteAddr, host.NextHop)
	assert.Equal(t, 3, host.Metric)
}
