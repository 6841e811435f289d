// Package botscore implements the heuristic bot scorer. It inspects one
// request's user-agent, headers, path, and method and produces a 0-100 score
// with a classification and the reason codes that contributed.
//
// Score is a pure function: no I/O, no randomness, no shared state. Two
// calls with the same Request yield byte-identical results, which makes the
// output safe to memoize by fingerprint.
package botscore

import (
	"strings"

	"github.com/vajra-security/shield/pkg/defaults"
	"github.com/vajra-security/shield/pkg/traffic"
)

// Classification buckets a score using the shared thresholds in defaults.
type Classification string

const (
	ClassHuman      Classification = "human"
	ClassSuspicious Classification = "suspicious"
	ClassBot        Classification = "bot"
)

// Score is the result of scoring one request.
type Score struct {
	// Value is the clamped sum of all triggered signal weights, in [0,100].
	Value int `json:"score"`

	// Classification is derived from Value alone; see Classify.
	Classification Classification `json:"classification"`

	// Reasons lists the signals that fired, in detection order.
	Reasons []string `json:"reasons"`

	// Fingerprint is a stable hash over the request's identifying headers,
	// usable as a cache or correlation key. See Fingerprint.
	Fingerprint string `json:"fingerprint"`
}

// knownBotAgents are substrings (matched case-insensitively) of user-agents
// announcing crawlers and HTTP client libraries.
var knownBotAgents = []string{
	"bot",
	"crawler",
	"spider",
	"scraper",
	"curl",
	"wget",
	"python",
	"java",
	"go-http-client",
	"axios",
	"node-fetch",
}

// headlessAgents are substrings of user-agents announcing browser automation.
var headlessAgents = []string{
	"headless",
	"phantom",
	"selenium",
	"puppeteer",
	"playwright",
}

// probePaths are paths scanners hit on every host they touch. A request for
// any of these from ordinary traffic is a strong automation signal.
var probePaths = []string{
	"/wp-admin",
	"/xmlrpc.php",
	"/.env",
	"/admin",
	"/phpmyadmin",
}

// Classify maps a score to its classification band. The same cutoffs apply
// wherever a bot score is compared: here, in bot_score rule conditions, and
// in the auto-blocker.
func Classify(score int) Classification {
	switch {
	case score >= defaults.BotScoreBotThreshold:
		return ClassBot
	case score >= defaults.BotScoreSuspiciousThreshold:
		return ClassSuspicious
	default:
		return ClassHuman
	}
}

// Compute scores a request. Signals are checked in three groups: known
// agents, header analysis, behavior analysis. Each signal contributes its
// fixed weight at most once; the total clamps to [0, 100].
func Compute(req traffic.Request) Score {
	var (
		total   int
		reasons []string
	)

	if pattern, ok := matchKnownAgent(req.UserAgent); ok {
		total += defaults.WeightKnownBotAgent
		reasons = append(reasons, "known-bot: "+pattern)
	}

	headerScore, headerReasons := analyzeHeaders(req)
	total += headerScore
	reasons = append(reasons, headerReasons...)

	behaviorScore, behaviorReasons := analyzeBehavior(req)
	total += behaviorScore
	reasons = append(reasons, behaviorReasons...)

	if total > defaults.BotScoreMax {
		total = defaults.BotScoreMax
	}

	return Score{
		Value:          total,
		Classification: Classify(total),
		Reasons:        reasons,
		Fingerprint:    Fingerprint(req),
	}
}

// matchKnownAgent reports whether the user-agent announces a known bot,
// HTTP client library, or headless browser, and which pattern matched.
func matchKnownAgent(userAgent string) (string, bool) {
	ua := strings.ToLower(userAgent)
	for _, pattern := range knownBotAgents {
		if strings.Contains(ua, pattern) {
			return pattern, true
		}
	}
	for _, pattern := range headlessAgents {
		if strings.Contains(ua, pattern) {
			return "headless-browser", true
		}
	}
	return "", false
}

func analyzeHeaders(req traffic.Request) (int, []string) {
	var (
		score   int
		reasons []string
	)

	if !req.HasHeader("accept-language") {
		score += defaults.WeightMissingAcceptLanguage
		reasons = append(reasons, "missing-accept-language")
	}
	if !req.HasHeader("accept-encoding") {
		score += defaults.WeightMissingAcceptEncoding
		reasons = append(reasons, "missing-accept-encoding")
	}

	switch {
	case req.UserAgent == "":
		score += defaults.WeightNoUserAgent
		reasons = append(reasons, "no-user-agent")
	case len(req.UserAgent) < defaults.ShortUserAgentLen:
		score += defaults.WeightShortUserAgent
		reasons = append(reasons, "short-user-agent")
	}

	if req.Header("x-requested-with") == "XMLHttpRequest" && !req.HasHeader("referer") {
		score += defaults.WeightAJAXNoReferer
		reasons = append(reasons, "suspicious-ajax")
	}

	via := req.Header("via")
	if strings.Contains(via, "proxy") || strings.Contains(via, "cache") {
		score += defaults.WeightProxyVia
		reasons = append(reasons, "proxy-detected")
	}

	return score, reasons
}

func analyzeBehavior(req traffic.Request) (int, []string) {
	var (
		score   int
		reasons []string
	)

	for _, probe := range probePaths {
		if strings.Contains(req.Path, probe) {
			score += defaults.WeightProbePath
			reasons = append(reasons, "scanning-common-paths")
			break
		}
	}

	switch strings.ToUpper(req.Method) {
	case "TRACE", "TRACK", "OPTIONS":
		score += defaults.WeightSuspiciousMethod
		reasons = append(reasons, "suspicious-http-method")
	}

	return score, reasons
}
