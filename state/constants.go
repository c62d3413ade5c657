package state

import "time"

// Protocol timing knobs. These are variables rather than constants so tests
// can shrink them and exercise convergence quickly.
var (
	// HelloInterval is how often a running router emits Hello on every link.
	HelloInterval = 1 * time.Second

	// DeadIntervalMultiple times HelloInterval without a Hello regresses a
	// link to Down.
	DeadIntervalMultiple = 4

	// SPFDebounce coalesces bursts of LSDB changes into one SPF run.
	SPFDebounce = 20 * time.Millisecond

	// LSARefreshInterval is how often a running router re-originates its own
	// LSA even when nothing changed, so peers never age it out.
	LSARefreshInterval = 30 * time.Second

	// LSAMaxAge is how long a remote LSA survives in the LSDB without being
	// refreshed.
	LSAMaxAge = 3 * LSARefreshInterval

	// StopTimeout bounds how long Stop and Close wait for worker goroutines.
	StopTimeout = 5 * time.Second

	// LinkChannelBuffer is the capacity of each directional link channel.
	// Sends to a full channel are dropped, never blocked on.
	LinkChannelBuffer = 128

	// EventBuffer is the capacity of the manager's event channel. Events are
	// best-effort and dropped when no one is draining.
	EventBuffer = 256
)

// DeadInterval is the Hello silence after which a neighbour is declared dead.
func DeadInterval() time.Duration {
	return time.Duration(DeadIntervalMultiple) * HelloInterval
}
