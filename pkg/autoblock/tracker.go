package autoblock

import (
	"sync"
	"time"
)

// ipState accumulates one IP's activity inside the current window.
type ipState struct {
	failed      int
	total       int
	scoreSum    int
	windowStart time.Time
	lastRequest time.Time
}

// Tracker maintains per-IP activity aggregates over a fixed window, for
// deployments without an external traffic-log aggregator. Record is called
// from the request path; Snapshot feeds ShouldAutoBlock on a slower cadence.
// Safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	window time.Duration
	ips    map[string]*ipState

	now func() time.Time // test hook
}

// NewTracker creates a Tracker whose aggregates reset once they age past
// window.
func NewTracker(window time.Duration) *Tracker {
	return &Tracker{
		window: window,
		ips:    make(map[string]*ipState),
		now:    time.Now,
	}
}

// Record adds one request to an IP's aggregate. failed marks requests that
// ended in an error or block; botScore is the request's heuristic score.
func (t *Tracker) Record(ip string, botScore int, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	state, ok := t.ips[ip]
	if !ok || now.Sub(state.windowStart) > t.window {
		state = &ipState{windowStart: now}
		t.ips[ip] = state
	}

	state.total++
	state.scoreSum += botScore
	if failed {
		state.failed++
	}
	state.lastRequest = now
}

// Snapshot returns the current aggregate for one IP. The zero Activity (with
// the IP filled in) is returned for unseen or expired IPs.
func (t *Tracker) Snapshot(ip string) Activity {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state, ok := t.ips[ip]
	if !ok || t.now().Sub(state.windowStart) > t.window {
		return Activity{IP: ip}
	}

	avg := 0.0
	if state.total > 0 {
		avg = float64(state.scoreSum) / float64(state.total)
	}
	return Activity{
		IP:             ip,
		FailedRequests: state.failed,
		TotalRequests:  state.total,
		AvgBotScore:    avg,
		LastRequestAt:  state.lastRequest,
	}
}

// SnapshotAll returns aggregates for every live IP, for sweep-style callers
// that evaluate the whole window at once.
func (t *Tracker) SnapshotAll() []Activity {
	t.mu.RLock()
	ips := make([]string, 0, len(t.ips))
	for ip := range t.ips {
		ips = append(ips, ip)
	}
	t.mu.RUnlock()

	activities := make([]Activity, 0, len(ips))
	for _, ip := range ips {
		if a := t.Snapshot(ip); a.TotalRequests > 0 {
			activities = append(activities, a)
		}
	}
	return activities
}

// Prune drops expired aggregates. Call periodically; Record expires entries
// lazily but only for IPs that come back.
func (t *Tracker) Prune() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for ip, state := range t.ips {
		if now.Sub(state.windowStart) > t.window {
			delete(t.ips, ip)
		}
	}
}
