// Package middleware wires the decision core into an HTTP server: score the
// request, thread the rate signal, run the evaluator, and map the verdict
// onto the response. The core packages stay pure; every side effect lives
// here.
package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/vajra-security/shield/pkg/autoblock"
	"github.com/vajra-security/shield/pkg/botscore"
	"github.com/vajra-security/shield/pkg/kvstore"
	"github.com/vajra-security/shield/pkg/metrics"
	"github.com/vajra-security/shield/pkg/ratewindow"
	"github.com/vajra-security/shield/pkg/rules"
	"github.com/vajra-security/shield/pkg/shield"
	"github.com/vajra-security/shield/pkg/traffic"
)

// Header names the middleware sets on responses.
const (
	// HeaderVerdict carries the admission verdict for observability.
	HeaderVerdict = "X-Shield-Verdict"

	// HeaderChallenge carries the challenge ticket the client must solve.
	HeaderChallenge = "X-Shield-Challenge"
)

// blockedKeyPrefix namespaces blocked-IP entries in the shared store.
const blockedKeyPrefix = "blocked:"

// challengeTTL bounds how long an issued challenge ticket stays solvable.
const challengeTTL = 5 * time.Minute

// activityWindow is the rolling span the auto-block tracker aggregates over.
const activityWindow = 10 * time.Minute

// RuleSource supplies the tenant's current rule set. Implementations
// typically read from the dashboard's database; tests use RuleSourceFunc.
type RuleSource interface {
	Rules() ([]*rules.Rule, error)
}

// RuleSourceFunc adapts a function to RuleSource.
type RuleSourceFunc func() ([]*rules.Rule, error)

// Rules implements RuleSource.
func (f RuleSourceFunc) Rules() ([]*rules.Rule, error) { return f() }

// StaticRules returns a RuleSource over a fixed rule set.
func StaticRules(ruleset []*rules.Rule) RuleSource {
	return RuleSourceFunc(func() ([]*rules.Rule, error) { return ruleset, nil })
}

// Options configures the middleware. Zero-value fields get working defaults
// from New.
type Options struct {
	// Config returns the current shield config; hot-reloadable by the
	// caller. Nil uses shield.DefaultConfig.
	Config func() shield.Config

	// Rules is the tenant rule source. Nil means no custom rules.
	Rules RuleSource

	// Store holds blocked-IP entries and challenge tickets. Nil uses an
	// in-memory store.
	Store kvstore.Store

	// AutoBlock is the persistent blocking policy applied to tracked
	// activity. Zero-value Config (Enabled=false) disables it.
	AutoBlock autoblock.Config

	// RateWindow is the span for per-IP rate measurement; 0 uses the
	// default.
	RateWindow time.Duration

	// Metrics receives decision observations. Nil disables metrics.
	Metrics *metrics.Metrics

	// OnChallenge handles requests that must be challenged, after the
	// ticket has been issued. Nil uses a JSON 403 response; real
	// deployments point this at their CAPTCHA flow.
	OnChallenge http.Handler

	// Logger receives fail-open warnings. Nil uses the stdlib default.
	Logger *log.Logger
}

// Middleware is the admission layer for one tenant.
type Middleware struct {
	opts    Options
	window  *ratewindow.Window
	tracker *autoblock.Tracker
	store   kvstore.Store
}

// New creates a Middleware with defaults filled in.
func New(opts Options) *Middleware {
	if opts.Config == nil {
		def := shield.DefaultConfig()
		opts.Config = func() shield.Config { return def }
	}
	if opts.Store == nil {
		opts.Store = kvstore.NewMemory()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Middleware{
		opts:    opts,
		window:  ratewindow.New(opts.RateWindow),
		tracker: autoblock.NewTracker(activityWindow),
		store:   opts.Store,
	}
}

// Wrap returns next guarded by the admission decision.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := traffic.FromHTTP(r)

		// Standing blocks decided by the auto-blocker short-circuit
		// everything, including lockdown-exempt allow rules.
		if _, blocked := m.store.Get(blockedKeyPrefix + req.IP); blocked {
			m.respondBlock(w, shield.VerdictBlock)
			return
		}

		score := botscore.Compute(req)
		req.BotScore = score.Value
		req.Rate = m.window.Observe(req.IP)

		verdict, matched := shield.DecideMatch(req, req.Rate, m.opts.Config(), m.fetchRules())

		if m.opts.Metrics != nil {
			m.opts.Metrics.ObserveScore(score)
			m.opts.Metrics.ObserveVerdict(verdict)
			if matched != nil {
				m.opts.Metrics.ObserveRuleMatch(matched.ID)
			}
		}

		m.trackAndAutoBlock(req, score, verdict)

		switch verdict {
		case shield.VerdictBlock:
			m.respondBlock(w, verdict)
		case shield.VerdictChallenge:
			m.respondChallenge(w, r, req)
		default:
			w.Header().Set(HeaderVerdict, string(verdict))
			next.ServeHTTP(w, r)
		}
	})
}

// fetchRules reads the tenant rule set, failing open: an unreachable rule
// source yields no rules so volumetric checks still apply.
func (m *Middleware) fetchRules() []*rules.Rule {
	if m.opts.Rules == nil {
		return nil
	}
	ruleset, err := m.opts.Rules.Rules()
	if err != nil {
		m.opts.Logger.Printf("shield: rule source unavailable, failing open: %v", err)
		return nil
	}
	return ruleset
}

// trackAndAutoBlock records the request in the activity window and promotes
// the IP to a standing block when the aggregate trips the policy.
func (m *Middleware) trackAndAutoBlock(req traffic.Request, score botscore.Score, verdict shield.Verdict) {
	if !m.opts.AutoBlock.Enabled {
		return
	}

	m.tracker.Record(req.IP, score.Value, verdict != shield.VerdictAllow)

	decision := autoblock.ShouldAutoBlock(m.tracker.Snapshot(req.IP), m.opts.AutoBlock)
	if !decision.ShouldBlock {
		return
	}

	ttl := time.Duration(m.opts.AutoBlock.DurationMinutes) * time.Minute
	m.store.Set(blockedKeyPrefix+req.IP, decision.Reason, ttl)
	if m.opts.Metrics != nil {
		m.opts.Metrics.ObserveAutoBlock()
	}
	m.opts.Logger.Printf("shield: auto-blocked %s until %s: %s",
		req.IP, autoblock.BlockExpiry(m.opts.AutoBlock.DurationMinutes).Format(time.RFC3339), decision.Reason)
}

func (m *Middleware) respondBlock(w http.ResponseWriter, verdict shield.Verdict) {
	w.Header().Set(HeaderVerdict, string(verdict))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "request blocked"})
}

func (m *Middleware) respondChallenge(w http.ResponseWriter, r *http.Request, req traffic.Request) {
	ticket := uuid.NewString()
	m.store.Set("challenge:"+ticket, req.IP, challengeTTL)

	w.Header().Set(HeaderVerdict, string(shield.VerdictChallenge))
	w.Header().Set(HeaderChallenge, ticket)

	if m.opts.OnChallenge != nil {
		m.opts.OnChallenge.ServeHTTP(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":     "challenge required",
		"challenge": ticket,
	})
}

// SolveChallenge redeems a ticket issued by respondChallenge. The CAPTCHA
// flow itself is external; this only verifies the ticket exists, belongs to
// the caller, and has not expired, then consumes it.
func (m *Middleware) SolveChallenge(ticket, ip string) bool {
	owner, ok := m.store.Get("challenge:" + ticket)
	if !ok || owner != ip {
		return false
	}
	m.store.Delete("challenge:" + ticket)
	return true
}

// Unblock clears a standing block for an IP, for operator overrides.
func (m *Middleware) Unblock(ip string) {
	m.store.Delete(blockedKeyPrefix + ip)
}

// BlockedReason returns why an IP is currently blocked, if it is.
func (m *Middleware) BlockedReason(ip string) (string, bool) {
	return m.store.Get(blockedKeyPrefix + ip)
}
