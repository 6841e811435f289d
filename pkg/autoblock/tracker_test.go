package autoblock

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestTrackerAggregates(t *testing.T) {
	tr := NewTracker(10 * time.Minute)

	tr.Record("203.0.113.9", 80, true)
	tr.Record("203.0.113.9", 40, false)
	tr.Record("203.0.113.9", 60, true)

	a := tr.Snapshot("203.0.113.9")
	if a.TotalRequests != 3 || a.FailedRequests != 2 {
		t.Errorf("totals = %d/%d, want 3/2", a.TotalRequests, a.FailedRequests)
	}
	if a.AvgBotScore != 60 {
		t.Errorf("avg = %g, want 60", a.AvgBotScore)
	}
	if a.LastRequestAt.IsZero() {
		t.Errorf("last request time not set")
	}
}

func TestTrackerUnknownIP(t *testing.T) {
	tr := NewTracker(time.Minute)
	a := tr.Snapshot("198.51.100.1")
	if a.TotalRequests != 0 || a.IP != "198.51.100.1" {
		t.Errorf("unseen IP snapshot = %+v", a)
	}
}

// TestTrackerWindowReset: a request landing after the window expires starts
// a fresh aggregate instead of extending the old one.
func TestTrackerWindowReset(t *testing.T) {
	tr := NewTracker(time.Minute)
	current := time.Now()
	tr.now = func() time.Time { return current }

	tr.Record("203.0.113.9", 100, true)

	current = current.Add(2 * time.Minute)
	tr.Record("203.0.113.9", 10, false)

	a := tr.Snapshot("203.0.113.9")
	if a.TotalRequests != 1 || a.FailedRequests != 0 || a.AvgBotScore != 10 {
		t.Errorf("post-expiry snapshot = %+v, want fresh window", a)
	}
}

func TestTrackerPrune(t *testing.T) {
	tr := NewTracker(time.Minute)
	current := time.Now()
	tr.now = func() time.Time { return current }

	tr.Record("a", 10, false)
	tr.Record("b", 10, false)

	current = current.Add(2 * time.Minute)
	tr.Record("c", 10, false)
	tr.Prune()

	if len(tr.ips) != 1 {
		t.Errorf("after prune %d entries, want 1", len(tr.ips))
	}
	if got := tr.SnapshotAll(); len(got) != 1 || got[0].IP != "c" {
		t.Errorf("SnapshotAll = %+v, want only c", got)
	}
}

// TestTrackerConcurrent hammers Record/Snapshot from many goroutines; run
// with -race.
func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker(time.Minute)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ip := fmt.Sprintf("203.0.113.%d", g)
			for i := 0; i < 200; i++ {
				tr.Record(ip, i%100, i%3 == 0)
				tr.Snapshot(ip)
			}
		}(g)
	}
	wg.Wait()

	if got := len(tr.SnapshotAll()); got != 8 {
		t.Errorf("tracked %d IPs, want 8", got)
	}
}
