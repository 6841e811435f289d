package ratewindow

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestObserveCounts(t *testing.T) {
	w := New(time.Minute)

	for i := 1; i <= 5; i++ {
		if got := w.Observe("203.0.113.1"); got != float64(i) {
			t.Errorf("observation %d returned rate %g", i, got)
		}
	}

	if got := w.Rate("203.0.113.1"); got != 5 {
		t.Errorf("Rate = %g, want 5", got)
	}
	if got := w.Rate("203.0.113.2"); got != 0 {
		t.Errorf("unseen IP rate = %g, want 0", got)
	}
}

func TestWindowExpiry(t *testing.T) {
	w := New(time.Minute)
	current := time.Now()
	w.now = func() time.Time { return current }

	w.Observe("a")
	w.Observe("a")

	current = current.Add(30 * time.Second)
	if got := w.Observe("a"); got != 3 {
		t.Errorf("mid-window rate = %g, want 3", got)
	}

	// The first two observations fall off after the span passes them.
	current = current.Add(45 * time.Second)
	if got := w.Observe("a"); got != 2 {
		t.Errorf("post-expiry rate = %g, want 2", got)
	}
}

func TestPerIPIsolation(t *testing.T) {
	w := New(time.Minute)
	w.Observe("a")
	w.Observe("a")
	w.Observe("b")

	if ra, rb := w.Rate("a"), w.Rate("b"); ra != 2 || rb != 1 {
		t.Errorf("rates a=%g b=%g, want 2/1", ra, rb)
	}
}

func TestEviction(t *testing.T) {
	w := New(time.Minute)
	w.maxIPs = 3
	current := time.Now()
	w.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		w.Observe(fmt.Sprintf("ip-%d", i))
		current = current.Add(time.Second)
	}
	w.Observe("ip-3") // evicts ip-0, the least recently seen

	if got := w.Rate("ip-0"); got != 0 {
		t.Errorf("evicted IP still has rate %g", got)
	}
	if got := w.Rate("ip-3"); got != 1 {
		t.Errorf("new IP rate = %g, want 1", got)
	}
}

func TestConcurrentObserve(t *testing.T) {
	w := New(time.Minute)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				w.Observe("shared")
			}
		}()
	}
	wg.Wait()

	if got := w.Rate("shared"); got != 800 {
		t.Errorf("rate after concurrent observes = %g, want 800", got)
	}
}
