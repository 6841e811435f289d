// Package ratewindow measures per-IP request rates over a sliding window.
// It produces the opaque rate number the shield evaluator compares against
// its volumetric thresholds; it enforces nothing itself.
package ratewindow

import (
	"sync"
	"time"

	"github.com/vajra-security/shield/pkg/defaults"
)

// window tracks request timestamps for one IP.
type window struct {
	mu       sync.Mutex
	requests []time.Time
	lastSeen time.Time
}

// Window counts requests per IP over a sliding span. Observe records a
// request and returns the rate including it, so the middleware makes one
// call per request. Safe for concurrent use.
type Window struct {
	mu     sync.RWMutex
	span   time.Duration
	maxIPs int
	ips    map[string]*window

	now func() time.Time // test hook
}

// New creates a Window over the given span. A span of 0 uses the default.
func New(span time.Duration) *Window {
	if span <= 0 {
		span = defaults.RateWindowSeconds * time.Second
	}
	return &Window{
		span:   span,
		maxIPs: defaults.RateWindowMaxIPs,
		ips:    make(map[string]*window),
		now:    time.Now,
	}
}

// Observe records one request for ip and returns the request count inside
// the current window, including this one.
func (w *Window) Observe(ip string) float64 {
	now := w.now()
	win := w.get(ip)

	win.mu.Lock()
	defer win.mu.Unlock()

	win.requests = trim(win.requests, now.Add(-w.span))
	win.requests = append(win.requests, now)
	win.lastSeen = now
	return float64(len(win.requests))
}

// Rate returns ip's current in-window request count without recording
// anything.
func (w *Window) Rate(ip string) float64 {
	w.mu.RLock()
	win, ok := w.ips[ip]
	w.mu.RUnlock()
	if !ok {
		return 0
	}

	win.mu.Lock()
	defer win.mu.Unlock()
	win.requests = trim(win.requests, w.now().Add(-w.span))
	return float64(len(win.requests))
}

func (w *Window) get(ip string) *window {
	w.mu.RLock()
	win, ok := w.ips[ip]
	w.mu.RUnlock()
	if ok {
		return win
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if win, ok = w.ips[ip]; ok {
		return win
	}
	if len(w.ips) >= w.maxIPs {
		w.evictOldest()
	}
	win = &window{}
	w.ips[ip] = win
	return win
}

// evictOldest drops the least recently seen IP. Called with w.mu held.
func (w *Window) evictOldest() {
	var (
		oldestIP string
		oldest   time.Time
	)
	for ip, win := range w.ips {
		if oldestIP == "" || win.lastSeen.Before(oldest) {
			oldestIP = ip
			oldest = win.lastSeen
		}
	}
	delete(w.ips, oldestIP)
}

// trim discards timestamps at or before cutoff, keeping the slice's backing
// array when nothing expired.
func trim(requests []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(requests) && !requests[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return requests
	}
	return append(requests[:0], requests[idx:]...)
}
