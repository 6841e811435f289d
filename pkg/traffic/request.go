// Package traffic defines the per-request value consumed by the scorer, the
// rule matcher, and the evaluator. A Request is built once at the edge,
// passed by value through the decision pipeline, and discarded with the
// verdict; nothing in this module persists it.
package traffic

import (
	"net"
	"net/http"
	"strings"
)

// Request is the snapshot of one inbound HTTP request.
//
// Optional fields use zero values for absence: Country is "" when
// geolocation is unavailable, BotScore is 0 until a scorer has run, and Rate
// is 0 when no rate signal has been threaded in. The decision core treats
// absence as a signal, never as an error.
type Request struct {
	IP        string
	UserAgent string
	Path      string
	Method    string

	// Headers holds request headers keyed by lowercase name. Use Header
	// for lookups so callers never depend on key casing.
	Headers map[string]string

	// Country is the ISO 3166-1 alpha-2 code supplied by an upstream
	// geolocation layer, if any.
	Country string

	// BotScore is the precomputed heuristic score for this request,
	// filled in by the caller after running the scorer.
	BotScore int

	// Rate is the current requests-per-interval measurement for this
	// client, filled in by the caller from its rate window.
	Rate float64
}

// Header returns the named header, matching case-insensitively.
// Missing headers return "".
func (r Request) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	if v, ok := r.Headers[name]; ok {
		return v
	}
	return r.Headers[strings.ToLower(name)]
}

// HasHeader reports whether the named header is present and non-empty.
func (r Request) HasHeader(name string) bool {
	return r.Header(name) != ""
}

// FromHTTP builds a Request from a net/http request. Header names are
// lowercased, multi-valued headers keep their first value, and the client IP
// is taken from X-Forwarded-For (first hop) falling back to RemoteAddr.
func FromHTTP(r *http.Request) Request {
	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}

	return Request{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
		Path:      r.URL.Path,
		Method:    r.Method,
		Headers:   headers,
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First address is the originating client; the rest are proxies.
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
