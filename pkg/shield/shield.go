// Package shield implements the traffic admission decision: given one
// request, its current rate, the operating mode, and the tenant's firewall
// rules, produce a verdict of allow, challenge, or block.
//
// Decide is a pure function evaluated fresh per request. There is no state
// across calls; concurrency safety falls out of that.
package shield

import (
	"errors"
	"fmt"

	"github.com/vajra-security/shield/pkg/defaults"
	"github.com/vajra-security/shield/pkg/rules"
	"github.com/vajra-security/shield/pkg/traffic"
)

// Sentinel errors for configuration failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidMode indicates an unknown operating mode.
	ErrInvalidMode = errors.New("shield: invalid mode")

	// ErrInvalidThresholds indicates the bunker trigger sits below the
	// rate-limit threshold, which would make the bunker trigger dead code.
	ErrInvalidThresholds = errors.New("shield: bunker trigger below rate limit threshold")
)

// Verdict is the final admission decision. The lowercase literals are the
// wire contract: middleware, logs, and the dashboard all compare against
// these exact strings.
type Verdict string

const (
	VerdictAllow     Verdict = "allow"
	VerdictChallenge Verdict = "challenge"
	VerdictBlock     Verdict = "block"
)

// Mode is the operating mode of the shield.
type Mode string

const (
	// ModeMonitor admits traffic normally; only rules and volumetric
	// triggers intervene.
	ModeMonitor Mode = "monitor"

	// ModeBunker challenges all traffic not decided by a rule.
	ModeBunker Mode = "bunker"

	// ModeLockdown blocks all traffic unconditionally. Operator emergency
	// override; rules cannot punch through it.
	ModeLockdown Mode = "lockdown"
)

// Valid returns true for a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeMonitor, ModeBunker, ModeLockdown:
		return true
	default:
		return false
	}
}

// Config holds the evaluator's operating mode and volumetric thresholds.
type Config struct {
	Mode Mode `json:"mode" yaml:"mode"`

	// RateLimitThreshold is the requests/interval above which a request
	// is challenged.
	RateLimitThreshold float64 `json:"rate_limit_threshold" yaml:"rate_limit_threshold"`

	// BunkerTriggerThreshold is the requests/interval above which a
	// request is challenged even in monitor mode, before the plain rate
	// limit is consulted. Must be >= RateLimitThreshold.
	BunkerTriggerThreshold float64 `json:"bunker_trigger_threshold" yaml:"bunker_trigger_threshold"`
}

// DefaultConfig returns a monitor-mode config with the stock thresholds.
func DefaultConfig() Config {
	return Config{
		Mode:                   ModeMonitor,
		RateLimitThreshold:     defaults.RateLimitThreshold,
		BunkerTriggerThreshold: defaults.BunkerTriggerThreshold,
	}
}

// Validate rejects unknown modes and inverted thresholds. Decide itself
// never errors; validation belongs at construction time.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, string(c.Mode))
	}
	if c.BunkerTriggerThreshold < c.RateLimitThreshold {
		return fmt.Errorf("%w: bunker=%v rate=%v",
			ErrInvalidThresholds, c.BunkerTriggerThreshold, c.RateLimitThreshold)
	}
	return nil
}

// Decide produces the admission verdict for one request. The precedence
// order is fixed and short-circuiting:
//
//  1. Lockdown mode blocks everything; even an allow rule cannot override an
//     operator emergency stop.
//  2. A matching firewall rule returns its action verbatim. Tenant intent
//     beats the generic heuristics below.
//  3. Bunker mode, or a rate above the bunker trigger, challenges.
//  4. A rate above the plain rate limit challenges.
//  5. Otherwise allow.
//
// Decide is total: any mode other than lockdown or bunker behaves as
// monitor, and no input combination errors.
func Decide(req traffic.Request, rate float64, cfg Config, ruleset []*rules.Rule) Verdict {
	if cfg.Mode == ModeLockdown {
		return VerdictBlock
	}

	if match := rules.Evaluate(req, ruleset); match.Matched() {
		return verdictFor(match.Action)
	}

	if cfg.Mode == ModeBunker || rate > cfg.BunkerTriggerThreshold {
		return VerdictChallenge
	}

	if rate > cfg.RateLimitThreshold {
		return VerdictChallenge
	}

	return VerdictAllow
}

// DecideMatch is Decide plus the matched rule, for callers that log or
// export which rule fired. Same precedence, same verdicts.
func DecideMatch(req traffic.Request, rate float64, cfg Config, ruleset []*rules.Rule) (Verdict, *rules.Rule) {
	if cfg.Mode == ModeLockdown {
		return VerdictBlock, nil
	}

	if match := rules.Evaluate(req, ruleset); match.Matched() {
		return verdictFor(match.Action), match.Rule
	}

	if cfg.Mode == ModeBunker || rate > cfg.BunkerTriggerThreshold {
		return VerdictChallenge, nil
	}
	if rate > cfg.RateLimitThreshold {
		return VerdictChallenge, nil
	}
	return VerdictAllow, nil
}

// verdictFor maps a rule action onto a verdict. The string sets are
// identical on purpose; the types differ so the compiler keeps rule actions
// and final verdicts from mixing.
func verdictFor(a rules.Action) Verdict {
	switch a {
	case rules.ActionBlock:
		return VerdictBlock
	case rules.ActionChallenge:
		return VerdictChallenge
	default:
		return VerdictAllow
	}
}
