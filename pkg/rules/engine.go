package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vajra-security/shield/pkg/traffic"
)

// Match is the outcome of evaluating a rule set against one request.
// When no rule matched, Action is allow and Rule is nil.
type Match struct {
	Action Action
	Rule   *Rule
}

// Matched reports whether a rule produced this match (as opposed to the
// default allow).
func (m Match) Matched() bool {
	return m.Rule != nil
}

// Evaluate runs the request through the rule set: enabled rules only, in
// descending priority order, first full match wins. Equal priorities keep
// their source order (stable sort), so a tenant's rule list evaluates the
// way it reads.
//
// Evaluate is pure and total: it never errors, never mutates its inputs,
// and returns the default allow when nothing matches.
func Evaluate(req traffic.Request, ruleset []*Rule) Match {
	ordered := make([]*Rule, 0, len(ruleset))
	for _, r := range ruleset {
		if r != nil && r.Enabled {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, r := range ordered {
		if matchesRule(req, r) {
			return Match{Action: r.Action, Rule: r}
		}
	}

	return Match{Action: ActionAllow}
}

// matchesRule requires every condition to hold (AND semantics; OR is spelled
// as two rules).
func matchesRule(req traffic.Request, r *Rule) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !matchesCondition(req, c) {
			return false
		}
	}
	return true
}

// matchesCondition evaluates one condition against the request. Operators
// that make no sense for the condition's type evaluate to false so the
// matcher stays total; Validate rejects such conditions at load time.
func matchesCondition(req traffic.Request, c Condition) bool {
	switch c.Type {
	case ConditionIP:
		return matchString(req.IP, c)
	case ConditionCountry:
		return matchString(req.Country, c)
	case ConditionPath:
		return matchString(req.Path, c)
	case ConditionMethod:
		return matchString(req.Method, c)
	case ConditionUserAgent:
		return matchString(req.UserAgent, c)
	case ConditionBotScore:
		return matchNumber(float64(req.BotScore), c)
	case ConditionRateLimit:
		return matchNumber(req.Rate, c)
	default:
		return false
	}
}

func matchString(actual string, c Condition) bool {
	switch c.Operator {
	case OpEquals:
		return actual == c.Value
	case OpContains:
		return strings.Contains(actual, c.Value)
	case OpInList:
		for _, v := range c.List {
			if actual == v {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchNumber(actual float64, c Condition) bool {
	switch c.Operator {
	case OpEquals:
		return actual == c.Number
	case OpGreaterThan:
		return actual > c.Number
	case OpLessThan:
		return actual < c.Number
	default:
		return false
	}
}

func errInvalidAction(r *Rule) error {
	return fmt.Errorf("%w: rule %s has action %q", ErrInvalidAction, r.ID, string(r.Action))
}

func errInvalidCondition(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidCondition, fmt.Sprintf(format, args...))
}
