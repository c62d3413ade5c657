package core

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/netip"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lirlia/vlsr/protocol"
	"github.com/lirlia/vlsr/state"
)

// Router is one simulated link-state router. All protocol state is owned by
// a single dispatch loop; external callers interact through serialized
// operations (DispatchWait under the hood) or through lock-free routing table
// snapshots.
type Router struct {
	env      *state.Env
	loopDone chan struct{}

	// workers tracks per-link listener goroutines.
	workers   sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	// table is the latest immutable routing table snapshot.
	table atomic.Pointer[state.RoutingTable]

	// publish delivers best-effort events to the manager.
	publish func(Event)

	// loop-owned fields, never touched off the dispatch loop.
	runCtx     context.Context
	runCancel  context.CancelFunc
	runGen     uint64
	spfPending bool
	lastSPF    []state.RoutingEntry
}

// NewRouter creates a router in the stopped state and starts its dispatch
// loop. The loop lives until Close.
func NewRouter(parent context.Context, id state.RouterID, prefixes []netip.Prefix, log *slog.Logger, publish func(Event)) *Router {
	ctx, cancel := context.WithCancelCause(parent)
	env := &state.Env{
		ID:              id,
		Prefixes:        prefixes,
		DispatchChannel: make(chan func(*state.State) error, 128),
		Context:         ctx,
		Cancel:          cancel,
		Log:             log.With("router", string(id)),
	}
	if publish == nil {
		publish = func(Event) {}
	}
	r := &Router{
		env:      env,
		loopDone: make(chan struct{}),
		publish:  publish,
	}
	r.table.Store(state.NewRoutingTable(nil, nil))
	go r.loop(state.NewState(env))
	return r
}

// ID returns the router's identifier.
func (r *Router) ID() state.RouterID {
	return r.env.ID
}

func (r *Router) loop(s *state.State) {
	defer close(r.loopDone)
	for {
		select {
		case fun := <-r.env.DispatchChannel:
			if err := fun(s); err != nil {
				s.Log.Error("dispatched task failed", "err", err)
			}
		case <-r.env.Context.Done():
			if r.runCancel != nil {
				r.runCancel()
			}
			return
		}
	}
}

// Start begins protocol activity: link listeners, periodic Hellos, dead
// neighbour checks, LSA refresh, and an initial self origination. Starting a
// running router is a no-op.
func (r *Router) Start() error {
	return r.env.DispatchWaitErr(func(s *state.State) error {
		if s.Running {
			return nil
		}
		s.Running = true
		r.runGen++
		gen := r.runGen
		r.runCtx, r.runCancel = context.WithCancel(s.Context)
		for _, l := range s.Links {
			r.startListener(r.runCtx, l)
		}
		s.Log.Info("router started", "links", len(s.Links))

		// periodic work is a chain of self-rescheduling tasks; the chain
		// dies when the run generation moves on
		r.repeat(s, gen, state.HelloInterval, r.sendHellos)
		r.repeat(s, gen, state.HelloInterval, func(s *state.State) {
			CheckDeadNeighbors(s, liveEffects{r, s}, time.Now())
		})
		r.repeat(s, gen, state.LSARefreshInterval, func(s *state.State) {
			OriginateLSA(s, liveEffects{r, s})
		})
		return nil
	})
}

// repeat runs fun now and every interval thereafter, for as long as the
// router keeps running in the same generation.
func (r *Router) repeat(s *state.State, gen uint64, interval time.Duration, fun func(*state.State)) {
	var task func(*state.State) error
	task = func(s *state.State) error {
		if !s.Running || gen != r.runGen {
			return nil
		}
		fun(s)
		s.ScheduleTask(task, interval)
		return nil
	}
	_ = task(s)
}

// Stop halts protocol activity and waits (bounded by StopTimeout) for the
// link listeners to exit. Links stay configured but regress to Down; SPF
// routes are withdrawn while direct routes remain. Stopping a stopped router
// is a no-op.
func (r *Router) Stop() error {
	res, err := r.env.DispatchWait(func(s *state.State) (any, error) {
		if !s.Running {
			return false, nil
		}
		s.Running = false
		r.runGen++
		r.runCancel()
		for _, l := range s.Links {
			l.State = state.LinkDown
		}
		r.lastSPF = nil
		r.spfPending = false
		r.rebuildTable(s)
		s.Log.Info("router stopped")
		return true, nil
	})
	if err != nil {
		return err
	}
	if stopped, _ := res.(bool); !stopped {
		return nil
	}
	return r.waitWorkers()
}

// Close permanently shuts the router down: stops it, cancels its context and
// waits for the dispatch loop and all listeners. Idempotent.
func (r *Router) Close(cause error) error {
	r.closeOnce.Do(func() {
		_ = r.Stop()
		r.env.Cancel(cause)
		select {
		case <-r.loopDone:
		case <-time.After(state.StopTimeout):
			r.closeErr = fmt.Errorf("router %s: dispatch loop did not exit", r.env.ID)
			return
		}
		r.closeErr = r.waitWorkers()
	})
	return r.closeErr
}

func (r *Router) waitWorkers() error {
	done := make(chan struct{})
	go func() {
		r.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(state.StopTimeout):
		return fmt.Errorf("router %s: listeners did not exit within %s", r.env.ID, state.StopTimeout)
	}
}

// AddNeighborLink attaches one end of a point-to-point link. The channel pair
// is shared with the peer: send is the peer's receive side and vice versa.
// Fails with ErrDuplicateLink if a link to the neighbour already exists; the
// router state is untouched in that case.
func (r *Router) AddNeighborLink(neighbor state.RouterID, local, remote netip.Addr, cost int, send chan<- []byte, recv <-chan []byte) error {
	return r.env.DispatchWaitErr(func(s *state.State) error {
		if _, dup := s.Links[neighbor]; dup {
			return fmt.Errorf("%w: %s is already linked to %s", ErrDuplicateLink, s.ID, neighbor)
		}
		l := &state.NeighborLink{
			Neighbor:   neighbor,
			LocalAddr:  local,
			RemoteAddr: remote,
			Cost:       cost,
			State:      state.LinkDown,
			Send:       send,
			Recv:       recv,
			Done:       make(chan struct{}),
		}
		s.Links[neighbor] = l
		s.Log.Debug("link added", "neighbour", neighbor, "cost", cost)
		if s.Running {
			r.startListener(r.runCtx, l)
			// kick discovery right away instead of waiting out the interval
			r.sendHellos(s)
			OriginateLSA(s, liveEffects{r, s})
		} else {
			r.rebuildTable(s)
		}
		return nil
	})
}

// RemoveNeighborLink detaches a link and retracts it from our LSA. The shared
// channels are left open for the peer; only our listener is torn down.
func (r *Router) RemoveNeighborLink(neighbor state.RouterID) error {
	return r.env.DispatchWaitErr(func(s *state.State) error {
		l, ok := s.Links[neighbor]
		if !ok {
			return fmt.Errorf("%w: %s has no link to %s", ErrLinkNotFound, s.ID, neighbor)
		}
		close(l.Done)
		delete(s.Links, neighbor)
		s.Log.Debug("link removed", "neighbour", neighbor)
		if s.Running {
			OriginateLSA(s, liveEffects{r, s})
		} else {
			r.rebuildTable(s)
		}
		return nil
	})
}

// GetRoutingTable returns the rows of the current routing table snapshot.
// Safe to call concurrently; never blocks protocol processing.
func (r *Router) GetRoutingTable() []state.RoutingEntry {
	return r.table.Load().Entries()
}

// RouteLookup longest-prefix matches dst against the current snapshot.
func (r *Router) RouteLookup(dst netip.Addr) (state.RoutingEntry, bool) {
	return r.table.Load().Lookup(dst)
}

func (r *Router) startListener(ctx context.Context, l *state.NeighborLink) {
	r.workers.Add(1)
	go func() {
		defer r.workers.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-l.Done:
				return
			case buf, ok := <-l.Recv:
				if !ok {
					return
				}
				r.handleMessage(l.Neighbor, buf)
			}
		}
	}()
}

func (r *Router) handleMessage(from state.RouterID, buf []byte) {
	pkt, err := protocol.Decode(buf)
	if err != nil {
		r.env.Dispatch(func(s *state.State) error {
			s.Stats.Malformed++
			s.Log.Warn("dropping malformed message", "from", from, "err", err)
			return nil
		})
		return
	}
	r.env.Dispatch(func(s *state.State) error {
		if !s.Running {
			return nil
		}
		fx := liveEffects{r, s}
		switch {
		case pkt.Hello != nil:
			HandleHello(s, fx, time.Now(), from, pkt.Hello)
		case pkt.LSU != nil:
			lsa, err := pkt.LSU.ToLSA()
			if err != nil {
				s.Stats.Malformed++
				s.Log.Warn("dropping malformed update", "from", from, "err", err)
				return nil
			}
			HandleLSA(s, fx, from, lsa)
		}
		return nil
	})
}

func (r *Router) sendHellos(s *state.State) {
	buf, err := protocol.EncodeHello(BuildHello(s))
	if err != nil {
		s.Log.Error("failed to encode hello", "err", err)
		return
	}
	for _, l := range s.Links {
		r.sendOn(s, l, buf)
		s.Stats.HellosSent++
	}
}

// sendOn never blocks; a full link buffer means the message is lost, exactly
// like a congested wire.
func (r *Router) sendOn(s *state.State, l *state.NeighborLink, buf []byte) {
	select {
	case l.Send <- buf:
	default:
		s.Stats.MessagesDropped++
		s.Log.Debug("link buffer full, dropping message", "neighbour", l.Neighbor)
	}
}

func (r *Router) runSPF(s *state.State) error {
	r.spfPending = false
	if !s.Running {
		return nil
	}
	db := s.SnapshotLSDB()
	paths := ShortestPaths(db, s.ID)
	r.lastSPF = RoutesFromPaths(s, db, paths)
	s.Stats.SPFRuns++
	r.rebuildTable(s)
	return nil
}

func (r *Router) rebuildTable(s *state.State) {
	t := state.NewRoutingTable(r.lastSPF, DirectRoutes(s))
	r.table.Store(t)
	r.publish(Event{Type: EventRoutingUpdated, Router: s.ID, Routes: t.Entries()})
}

// liveEffects wires the protocol logic to real links. It is only ever
// constructed inside dispatched closures, so it may touch State freely.
type liveEffects struct {
	r *Router
	s *state.State
}

func (fx liveEffects) SendLSA(to state.RouterID, lsa state.LSA) {
	l, ok := fx.s.Links[to]
	if !ok || l.State != state.LinkFull {
		return
	}
	buf, err := protocol.EncodeLSU(protocol.FromLSA(lsa))
	if err != nil {
		fx.s.Log.Error("failed to encode update", "err", err)
		return
	}
	fx.r.sendOn(fx.s, l, buf)
	fx.s.Stats.LSAsForwarded++
}

func (fx liveEffects) FloodLSA(lsa state.LSA, except state.RouterID) {
	buf, err := protocol.EncodeLSU(protocol.FromLSA(lsa))
	if err != nil {
		fx.s.Log.Error("failed to encode update", "err", err)
		return
	}
	for id, l := range fx.s.Links {
		if id == except || id == lsa.Origin || l.State != state.LinkFull {
			continue
		}
		fx.r.sendOn(fx.s, l, buf)
		fx.s.Stats.LSAsForwarded++
	}
}

func (fx liveEffects) ScheduleSPF() {
	if fx.r.spfPending {
		return
	}
	fx.r.spfPending = true
	fx.s.ScheduleTask(fx.r.runSPF, state.SPFDebounce)
}

// LinkSnapshot is a read-only copy of one adjacency.
type LinkSnapshot struct {
	Neighbor   state.RouterID
	LocalAddr  netip.Addr
	RemoteAddr netip.Addr
	Cost       int
	State      state.LinkState
	LastHello  time.Time
}

// RouterSnapshot is a consistent copy of a router's externally visible state,
// taken in a single loop turn.
type RouterSnapshot struct {
	ID      state.RouterID
	Running bool
	Links   []LinkSnapshot
	LSDB    []state.LSA
	Routes  []state.RoutingEntry
	Stats   state.Stats
}

// Snapshot captures the router's state for display and assertions.
func (r *Router) Snapshot() (RouterSnapshot, error) {
	res, err := r.env.DispatchWait(func(s *state.State) (any, error) {
		snap := RouterSnapshot{
			ID:      s.ID,
			Running: s.Running,
			Routes:  r.table.Load().Entries(),
			Stats:   s.Stats,
		}
		for _, l := range s.Links {
			snap.Links = append(snap.Links, LinkSnapshot{
				Neighbor:   l.Neighbor,
				LocalAddr:  l.LocalAddr,
				RemoteAddr: l.RemoteAddr,
				Cost:       l.Cost,
				State:      l.State,
				LastHello:  l.LastHello,
			})
		}
		for _, lsa := range s.SnapshotLSDB() {
			snap.LSDB = append(snap.LSDB, lsa)
		}
		sort.Slice(snap.Links, func(i, j int) bool { return snap.Links[i].Neighbor < snap.Links[j].Neighbor })
		sort.Slice(snap.LSDB, func(i, j int) bool { return snap.LSDB[i].Origin < snap.LSDB[j].Origin })
		return snap, nil
	})
	if err != nil {
		return RouterSnapshot{}, err
	}
	return res.(RouterSnapshot), nil
}

// PingResult is the outcome of a simulated reachability probe.
type PingResult struct {
	Reachable bool
	RTT       time.Duration
	Detail    string
}

// SimulatePing checks reachability of dst against the routing table snapshot
// and fabricates a round-trip time proportional to the path metric. No
// packets are exchanged.
func (r *Router) SimulatePing(dst netip.Addr) PingResult {
	for _, p := range r.env.Prefixes {
		if p.Contains(dst) {
			return PingResult{Reachable: true, RTT: time.Duration(rand.N(100)) * time.Microsecond, Detail: "local address"}
		}
	}
	e, ok := r.RouteLookup(dst)
	if !ok {
		return PingResult{Detail: "no route to host"}
	}
	rtt := time.Duration(e.Metric*2)*time.Millisecond + time.Duration(rand.N(3000))*time.Microsecond
	return PingResult{
		Reachable: true,
		RTT:       rtt,
		Detail:    fmt.Sprintf("via %s next hop %s metric %d", e.Via, e.NextHop, e.Metric),
	}
}
