package state

import (
	"context"
	"log/slog"
	"net/netip"

	"github.com/jellydator/ttlcache/v3"
)

// Env is the stable environment of a router. It is safe to share across
// goroutines; everything mutable lives in State and is only touched on the
// router loop.
type Env struct {
	ID       RouterID
	Prefixes []netip.Prefix

	DispatchChannel chan func(*State) error
	Context         context.Context
	Cancel          context.CancelCauseFunc
	Log             *slog.Logger
}

// State is the mutable core of a router. It must only ever be accessed from
// the router's dispatch loop.
type State struct {
	*Env

	Running bool

	// Links is the set of point-to-point adjacencies, keyed by neighbour id.
	Links map[RouterID]*NeighborLink

	// LSDB holds the freshest known LSA per origin. Our own LSA never
	// expires; remote LSAs age out after LSAMaxAge unless refreshed.
	LSDB *ttlcache.Cache[RouterID, LSA]

	// SeqNum is the sequence number of the most recent self-originated LSA.
	SeqNum uint64

	Stats Stats
}

// NewState builds the loop-owned state for a router.
func NewState(env *Env) *State {
	return &State{
		Env:   env,
		Links: make(map[RouterID]*NeighborLink),
		LSDB: ttlcache.New[RouterID, LSA](
			ttlcache.WithTTL[RouterID, LSA](LSAMaxAge),
			ttlcache.WithDisableTouchOnHit[RouterID, LSA](),
		),
	}
}

// SnapshotLSDB copies the live (non-expired) LSDB into a plain map, suitable
// for handing to the SPF computation.
func (s *State) SnapshotLSDB() map[RouterID]LSA {
	db := make(map[RouterID]LSA, s.LSDB.Len())
	for origin, item := range s.LSDB.Items() {
		if item.IsExpired() {
			continue
		}
		db[origin] = item.Value()
	}
	return db
}
