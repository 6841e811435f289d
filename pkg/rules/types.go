// Package rules implements the tenant firewall rule engine: an ordered list
// of enabled rules, each a conjunction of typed conditions, evaluated
// first-match against one request.
package rules

import (
	"errors"
	"time"
)

// Sentinel errors for rule validation failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrInvalidAction indicates a rule carries an unknown action.
	ErrInvalidAction = errors.New("rules: invalid action")

	// ErrInvalidCondition indicates a condition's type, operator, or value
	// shape is inconsistent.
	ErrInvalidCondition = errors.New("rules: invalid condition")
)

// Action is what a matching rule asks the evaluator to do. The literals are
// part of the wire contract and must not change.
type Action string

const (
	ActionBlock     Action = "block"
	ActionAllow     Action = "allow"
	ActionChallenge Action = "challenge"
)

// Valid returns true if the action is one of the three known literals.
func (a Action) Valid() bool {
	switch a {
	case ActionBlock, ActionAllow, ActionChallenge:
		return true
	default:
		return false
	}
}

// ConditionType selects which request attribute a condition examines.
type ConditionType string

const (
	ConditionIP        ConditionType = "ip"
	ConditionCountry   ConditionType = "country"
	ConditionPath      ConditionType = "path"
	ConditionMethod    ConditionType = "method"
	ConditionUserAgent ConditionType = "user_agent"
	ConditionBotScore  ConditionType = "bot_score"
	ConditionRateLimit ConditionType = "rate_limit"
)

// Numeric reports whether the condition type compares numbers. Numeric types
// use the Number field and the equals/greater_than/less_than operators;
// everything else is string-valued.
func (t ConditionType) Numeric() bool {
	return t == ConditionBotScore || t == ConditionRateLimit
}

// Valid returns true for a known condition type.
func (t ConditionType) Valid() bool {
	switch t {
	case ConditionIP, ConditionCountry, ConditionPath, ConditionMethod,
		ConditionUserAgent, ConditionBotScore, ConditionRateLimit:
		return true
	default:
		return false
	}
}

// Operator is how a condition compares the request attribute to its value.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpInList      Operator = "in_list"
)

// Valid returns true for a known operator.
func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpContains, OpGreaterThan, OpLessThan, OpInList:
		return true
	default:
		return false
	}
}

// Condition is one AND-term of a rule. Exactly one value field is meaningful
// per condition: Number for numeric types, List for in_list, Value otherwise.
// Validate enforces the pairing at load time; evaluation stays total and
// treats a mismatched pairing as a non-match rather than an error.
type Condition struct {
	Type     ConditionType `json:"type" yaml:"type"`
	Operator Operator      `json:"operator" yaml:"operator"`

	// Value holds the comparand for string conditions.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// List holds the membership set for in_list conditions.
	List []string `json:"list,omitempty" yaml:"list,omitempty"`

	// Number holds the comparand for bot_score and rate_limit conditions.
	Number float64 `json:"number,omitempty" yaml:"number,omitempty"`
}

// Validate checks that the type, operator, and value shape agree.
func (c Condition) Validate() error {
	if !c.Type.Valid() {
		return errInvalidCondition("unknown type %q", string(c.Type))
	}
	if !c.Operator.Valid() {
		return errInvalidCondition("unknown operator %q", string(c.Operator))
	}

	if c.Type.Numeric() {
		switch c.Operator {
		case OpEquals, OpGreaterThan, OpLessThan:
			return nil
		default:
			return errInvalidCondition("operator %q not valid for numeric type %q",
				string(c.Operator), string(c.Type))
		}
	}

	switch c.Operator {
	case OpEquals, OpContains:
		if c.Value == "" {
			return errInvalidCondition("%s/%s requires a value", string(c.Type), string(c.Operator))
		}
	case OpInList:
		if len(c.List) == 0 {
			return errInvalidCondition("%s/in_list requires a non-empty list", string(c.Type))
		}
	default:
		return errInvalidCondition("operator %q not valid for string type %q",
			string(c.Operator), string(c.Type))
	}
	return nil
}

// Rule is one tenant-defined firewall rule. Higher Priority evaluates first;
// all conditions must hold for the rule to match.
type Rule struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Priority int    `json:"priority" yaml:"priority"`

	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Action     Action      `json:"action" yaml:"action"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Validate checks the rule's action and every condition.
func (r *Rule) Validate() error {
	if !r.Action.Valid() {
		return errInvalidAction(r)
	}
	if len(r.Conditions) == 0 {
		return errInvalidCondition("rule %s has no conditions", r.ID)
	}
	for _, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}
