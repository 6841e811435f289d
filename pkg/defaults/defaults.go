// Package defaults provides canonical default values for the entire codebase.
// This is the SINGLE SOURCE OF TRUTH for bot-score thresholds, signal
// weights, and auto-block policy defaults.
//
// Usage:
//
//	if score >= defaults.BotScoreBotThreshold { ... }
//	cfg.Thresholds.FailedRequests = defaults.AutoBlockFailedRequests
//
// DO NOT duplicate these values at call sites. The scorer, the rule matcher,
// and the evaluator must all agree on the same cutoffs; referencing this
// package is how that agreement is enforced.
package defaults

// Version is the current shield core version
const Version = "1.2.0"

// ============================================================================
// BOT SCORE THRESHOLDS
// ============================================================================
//
// Classification cutoffs shared by the scorer, the bot_score rule condition,
// and the auto-blocker. Scores are integers in [0, 100].
// ============================================================================

const (
	// BotScoreMin is the lowest possible bot score (0)
	BotScoreMin = 0

	// BotScoreMax is the highest possible bot score; sums clamp here (100)
	BotScoreMax = 100

	// BotScoreSuspiciousThreshold marks the start of the suspicious band (50)
	BotScoreSuspiciousThreshold = 50

	// BotScoreBotThreshold marks the start of the bot band (80)
	BotScoreBotThreshold = 80
)

// ============================================================================
// SIGNAL WEIGHTS
// ============================================================================
//
// Per-signal contributions to the bot score. Each weight fires at most once
// per request; the final score is the clamped sum.
// ============================================================================

const (
	// WeightKnownBotAgent fires on a known bot/CLI/headless user-agent (80)
	WeightKnownBotAgent = 80

	// WeightProbePath fires on admin/scanner probe paths (40)
	WeightProbePath = 40

	// WeightNoUserAgent fires when the user-agent is absent entirely (30)
	WeightNoUserAgent = 30

	// WeightShortUserAgent fires on user-agents under ShortUserAgentLen (25)
	WeightShortUserAgent = 25

	// WeightMissingAcceptLanguage fires when Accept-Language is absent (20)
	WeightMissingAcceptLanguage = 20

	// WeightSuspiciousMethod fires on TRACE/TRACK/OPTIONS requests (20)
	WeightSuspiciousMethod = 20

	// WeightMissingAcceptEncoding fires when Accept-Encoding is absent (15)
	WeightMissingAcceptEncoding = 15

	// WeightProxyVia fires on proxy/cache markers in the Via header (15)
	WeightProxyVia = 15

	// WeightAJAXNoReferer fires on XMLHttpRequest without a Referer (10)
	WeightAJAXNoReferer = 10
)

// ShortUserAgentLen is the length below which a user-agent is suspicious.
// Real browser user-agents are far longer.
const ShortUserAgentLen = 20

// FingerprintLen is the hex length of the request fingerprint
// (sha256 truncated; a correlation key, not an identity).
const FingerprintLen = 32

// ============================================================================
// AUTO-BLOCK POLICY
// ============================================================================

const (
	// AutoBlockFailedRequests blocks after this many failed requests (10)
	AutoBlockFailedRequests = 10

	// AutoBlockHighBotScore blocks at this average bot score (85)
	AutoBlockHighBotScore = 85

	// AutoBlockRequestRate blocks at this many requests per minute (100)
	AutoBlockRequestRate = 100

	// AutoBlockDurationMinutes is how long an auto-block lasts (60)
	AutoBlockDurationMinutes = 60
)

// ============================================================================
// SHIELD EVALUATOR
// ============================================================================

const (
	// RateLimitThreshold is the default requests/interval before a
	// challenge is issued (100)
	RateLimitThreshold = 100

	// BunkerTriggerThreshold is the default requests/interval that forces
	// a challenge regardless of mode (200)
	BunkerTriggerThreshold = 200
)

// ============================================================================
// RATE WINDOW
// ============================================================================

const (
	// RateWindowSeconds is the default sliding-window span for per-IP
	// rate measurement (60)
	RateWindowSeconds = 60

	// RateWindowMaxIPs caps tracked IPs before the window evicts the
	// least recently seen entry (10000)
	RateWindowMaxIPs = 10000
)
