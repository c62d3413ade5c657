package core

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/lirlia/vlsr/state"
)

// RouterManager owns the lifecycle of a set of routers and the links between
// them. Registry changes are serialized under mu; link changes additionally
// hold linkMu so a connect and a disconnect can never interleave halfway.
type RouterManager struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	log    *slog.Logger

	mu      sync.RWMutex
	routers map[state.RouterID]*Router

	// linkMu serializes multi-router link mutations.
	linkMu sync.Mutex

	// linkSeq feeds the link address allocator.
	linkSeq atomic.Uint32

	// evMu guards events against publishing into a closed channel.
	evMu   sync.RWMutex
	events chan Event
	closed bool
}

// NewRouterManager creates an empty topology.
func NewRouterManager(log *slog.Logger) *RouterManager {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &RouterManager{
		ctx:     ctx,
		cancel:  cancel,
		log:     log,
		routers: make(map[state.RouterID]*Router),
		events:  make(chan Event, state.EventBuffer),
	}
}

// Events exposes the best-effort notification stream. Events are dropped when
// nobody drains the channel.
func (m *RouterManager) Events() <-chan Event {
	return m.events
}

func (m *RouterManager) publish(ev Event) {
	m.evMu.RLock()
	defer m.evMu.RUnlock()
	if m.closed {
		return
	}
	select {
	case m.events <- ev:
	default:
	}
}

// CreateRouter registers a new router in the stopped state.
func (m *RouterManager) CreateRouter(id state.RouterID, prefixes []netip.Prefix) (*Router, error) {
	if err := state.NameValidator(string(id)); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.routers[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRouter, id)
	}
	r := NewRouter(m.ctx, id, prefixes, m.log, m.publish)
	m.routers[id] = r
	m.publish(Event{Type: EventRouterAdded, Router: id})
	return r, nil
}

// GetRouter looks up a router by id.
func (m *RouterManager) GetRouter(id state.RouterID) (*Router, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.routers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRouterNotFound, id)
	}
	return r, nil
}

// RouterSnapshot captures the externally visible state of one router.
func (m *RouterManager) RouterSnapshot(id state.RouterID) (RouterSnapshot, error) {
	r, err := m.GetRouter(id)
	if err != nil {
		return RouterSnapshot{}, err
	}
	return r.Snapshot()
}

// SimulatePing probes reachability of dst from the named router.
func (m *RouterManager) SimulatePing(from state.RouterID, dst netip.Addr) (PingResult, error) {
	r, err := m.GetRouter(from)
	if err != nil {
		return PingResult{}, err
	}
	return r.SimulatePing(dst), nil
}

// ListRouters returns all router ids in sorted order.
func (m *RouterManager) ListRouters() []state.RouterID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]state.RouterID, 0, len(m.routers))
	for id := range m.routers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DeleteRouter removes a router from the topology. A router that still has
// links is refused with ErrRouterBusy unless force is set, in which case all
// of its links are torn down on both ends first.
func (m *RouterManager) DeleteRouter(id state.RouterID, force bool) error {
	// holding linkMu from the snapshot through the registry removal keeps a
	// concurrent ConnectRouters from wiring a new link to the dying router
	// and leaving the peer with a dangling adjacency
	m.linkMu.Lock()
	r, err := m.GetRouter(id)
	if err != nil {
		m.linkMu.Unlock()
		return err
	}
	snap, err := r.Snapshot()
	if err != nil {
		m.linkMu.Unlock()
		return err
	}
	if len(snap.Links) > 0 {
		if !force {
			m.linkMu.Unlock()
			return fmt.Errorf("%w: %s still has %d links", ErrRouterBusy, id, len(snap.Links))
		}
		for _, l := range snap.Links {
			if derr := m.disconnectLocked(id, l.Neighbor); derr != nil && !errors.Is(derr, ErrLinkNotFound) {
				m.linkMu.Unlock()
				return derr
			}
		}
	}

	m.mu.Lock()
	delete(m.routers, id)
	m.mu.Unlock()
	m.linkMu.Unlock()

	if err := r.Close(fmt.Errorf("router %s deleted", id)); err != nil {
		return err
	}
	m.publish(Event{Type: EventRouterRemoved, Router: id})
	return nil
}

// ConnectRouters creates a symmetric point-to-point link between a and b with
// automatically allocated link addresses.
func (m *RouterManager) ConnectRouters(a, b state.RouterID, cost int) error {
	aAddr, bAddr := m.allocLinkAddrs()
	return m.ConnectRoutersAddr(a, b, cost, aAddr, bAddr)
}

// ConnectRoutersAddr is ConnectRouters with caller-chosen link addresses.
// Both directions are wired, or neither: a failure on the second end rolls
// back the first.
func (m *RouterManager) ConnectRoutersAddr(a, b state.RouterID, cost int, aAddr, bAddr netip.Addr) error {
	if a == b {
		return fmt.Errorf("%w: %s cannot be linked to itself", ErrDuplicateLink, a)
	}
	if cost <= 0 {
		return fmt.Errorf("link %s-%s must have a positive cost, got %d", a, b, cost)
	}

	m.linkMu.Lock()
	defer m.linkMu.Unlock()

	// resolve under linkMu so a racing DeleteRouter cannot hand us a router
	// that is about to leave the registry
	ra, err := m.GetRouter(a)
	if err != nil {
		return err
	}
	rb, err := m.GetRouter(b)
	if err != nil {
		return err
	}

	aToB := make(chan []byte, state.LinkChannelBuffer)
	bToA := make(chan []byte, state.LinkChannelBuffer)

	if err := ra.AddNeighborLink(b, aAddr, bAddr, cost, aToB, bToA); err != nil {
		return err
	}
	if err := rb.AddNeighborLink(a, bAddr, aAddr, cost, bToA, aToB); err != nil {
		// roll back so the topology stays symmetric
		if rerr := ra.RemoveNeighborLink(b); rerr != nil {
			m.log.Error("rollback failed", "router", a, "neighbour", b, "err", rerr)
		}
		return err
	}
	m.log.Info("routers connected", "a", a, "b", b, "cost", cost)
	m.publish(Event{Type: EventLinkUp, Router: a, Peer: b})
	return nil
}

// DisconnectRouters tears down the link between a and b on both ends. Either
// end missing yields ErrLinkNotFound, but a half-configured link is still
// cleaned up.
func (m *RouterManager) DisconnectRouters(a, b state.RouterID) error {
	m.linkMu.Lock()
	defer m.linkMu.Unlock()
	return m.disconnectLocked(a, b)
}

func (m *RouterManager) disconnectLocked(a, b state.RouterID) error {
	ra, err := m.GetRouter(a)
	if err != nil {
		return err
	}
	rb, err := m.GetRouter(b)
	if err != nil {
		return err
	}

	errA := ra.RemoveNeighborLink(b)
	errB := rb.RemoveNeighborLink(a)
	if errA != nil {
		return errA
	}
	if errB != nil {
		return errB
	}
	m.log.Info("routers disconnected", "a", a, "b", b)
	m.publish(Event{Type: EventLinkDown, Router: a, Peer: b})
	return nil
}

// StartAll starts every registered router.
func (m *RouterManager) StartAll() error {
	for _, r := range m.snapshotRouters() {
		if err := r.Start(); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown closes every router concurrently, then tears the manager down and
// closes the event stream. Safe to call more than once.
func (m *RouterManager) Shutdown() error {
	var g errgroup.Group
	for _, r := range m.snapshotRouters() {
		g.Go(func() error {
			return r.Close(errors.New("manager shutdown"))
		})
	}
	err := g.Wait()

	m.mu.Lock()
	m.routers = make(map[state.RouterID]*Router)
	m.mu.Unlock()

	m.evMu.Lock()
	if !m.closed {
		m.closed = true
		close(m.events)
	}
	m.evMu.Unlock()

	m.cancel(errors.New("manager shutdown"))
	return err
}

func (m *RouterManager) snapshotRouters() []*Router {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Router, 0, len(m.routers))
	for _, r := range m.routers {
		out = append(out, r)
	}
	return out
}

// allocLinkAddrs carves a fresh address pair for a link out of 10.200.0.0/16.
func (m *RouterManager) allocLinkAddrs() (netip.Addr, netip.Addr) {
	n := m.linkSeq.Add(1)
	base := uint32(0x0AC80000) + n*4 // 10.200.0.0
	var a, b [4]byte
	binary.BigEndian.PutUint32(a[:], base+1)
	binary.BigEndian.PutUint32(b[:], base+2)
	return netip.AddrFrom4(a), netip.AddrFrom4(b)
}
