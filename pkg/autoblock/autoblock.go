// Package autoblock implements the slow-cadence persistent blocking policy.
// It runs against per-IP activity aggregates, not individual requests: the
// per-request evaluator in pkg/shield decides admission, this package
// decides whether an IP has earned a standing block.
package autoblock

import (
	"fmt"
	"math"
	"time"

	"github.com/vajra-security/shield/pkg/defaults"
)

// Thresholds are the three independent auto-block triggers.
type Thresholds struct {
	// FailedRequests blocks after this many failed requests in the window.
	FailedRequests int `json:"failed_requests" yaml:"failed_requests"`

	// HighBotScore blocks at this average bot score.
	HighBotScore float64 `json:"high_bot_score" yaml:"high_bot_score"`

	// RequestRate blocks at this many requests per minute.
	RequestRate float64 `json:"request_rate" yaml:"request_rate"`
}

// Config controls the auto-blocker. Disabled means no IP is ever blocked,
// whatever the thresholds say.
type Config struct {
	Enabled    bool       `json:"enabled" yaml:"enabled"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`

	// DurationMinutes is how long a block lasts once issued.
	DurationMinutes int `json:"duration_minutes" yaml:"duration_minutes"`
}

// DefaultConfig returns the stock auto-block policy.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Thresholds: Thresholds{
			FailedRequests: defaults.AutoBlockFailedRequests,
			HighBotScore:   defaults.AutoBlockHighBotScore,
			RequestRate:    defaults.AutoBlockRequestRate,
		},
		DurationMinutes: defaults.AutoBlockDurationMinutes,
	}
}

// Activity is the windowed aggregate for one IP, maintained by a Tracker or
// an external traffic-log aggregator.
type Activity struct {
	IP             string    `json:"ip"`
	FailedRequests int       `json:"failed_requests"`
	TotalRequests  int       `json:"total_requests"`
	AvgBotScore    float64   `json:"avg_bot_score"`
	LastRequestAt  time.Time `json:"last_request_at"`
}

// Decision is the auto-blocker's output. Reason is set only when
// ShouldBlock is true and names the threshold that tripped with the
// observed and configured values.
type Decision struct {
	ShouldBlock bool   `json:"should_block"`
	Reason      string `json:"reason,omitempty"`
}

// ShouldAutoBlock checks the three thresholds in fixed order, returning on
// the first breach. A disabled config short-circuits to no-block.
func ShouldAutoBlock(activity Activity, cfg Config) Decision {
	return decideAt(activity, cfg, time.Now())
}

func decideAt(activity Activity, cfg Config, now time.Time) Decision {
	if !cfg.Enabled {
		return Decision{}
	}

	if activity.FailedRequests >= cfg.Thresholds.FailedRequests {
		return Decision{
			ShouldBlock: true,
			Reason: fmt.Sprintf("Exceeded failed requests threshold (%d/%d)",
				activity.FailedRequests, cfg.Thresholds.FailedRequests),
		}
	}

	if activity.AvgBotScore >= cfg.Thresholds.HighBotScore {
		return Decision{
			ShouldBlock: true,
			Reason: fmt.Sprintf("High bot score detected (%g/%g)",
				activity.AvgBotScore, cfg.Thresholds.HighBotScore),
		}
	}

	if rate := requestRate(activity, now); rate >= cfg.Thresholds.RequestRate {
		return Decision{
			ShouldBlock: true,
			Reason: fmt.Sprintf("High request rate detected (%d/%g req/min)",
				int(math.Round(rate)), cfg.Thresholds.RequestRate),
		}
	}

	return Decision{}
}

// requestRate computes requests per minute since the last request in the
// aggregate. Zero or negative elapsed time yields rate 0 rather than a
// divide-by-zero blow-up; a request seen "now" carries no rate information.
func requestRate(activity Activity, now time.Time) float64 {
	minutes := now.Sub(activity.LastRequestAt).Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(activity.TotalRequests) / minutes
}

// BlockExpiry returns when a block issued now should lapse. Persisting the
// block is the caller's concern.
func BlockExpiry(durationMinutes int) time.Time {
	return time.Now().Add(time.Duration(durationMinutes) * time.Minute)
}
