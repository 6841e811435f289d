package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Template constructors for the rules tenants create most often. Priorities
// are staggered so geo blocks outrank score blocks, which outrank path
// blocks, when a tenant stacks all three.

// BlockCountries builds an enabled rule blocking the given country codes.
func BlockCountries(countries ...string) *Rule {
	return &Rule{
		ID:       uuid.NewString(),
		Name:     "Block " + strings.Join(countries, ", "),
		Enabled:  true,
		Priority: 100,
		Conditions: []Condition{
			{Type: ConditionCountry, Operator: OpInList, List: countries},
		},
		Action:    ActionBlock,
		CreatedAt: time.Now(),
	}
}

// BlockHighBotScore builds an enabled rule blocking requests whose bot score
// exceeds threshold.
func BlockHighBotScore(threshold int) *Rule {
	return &Rule{
		ID:       uuid.NewString(),
		Name:     fmt.Sprintf("Block Bot Score > %d", threshold),
		Enabled:  true,
		Priority: 90,
		Conditions: []Condition{
			{Type: ConditionBotScore, Operator: OpGreaterThan, Number: float64(threshold)},
		},
		Action:    ActionBlock,
		CreatedAt: time.Now(),
	}
}

// BlockPath builds an enabled rule blocking any request whose path contains
// the given fragment.
func BlockPath(path string) *Rule {
	return &Rule{
		ID:       uuid.NewString(),
		Name:     "Block " + path,
		Enabled:  true,
		Priority: 80,
		Conditions: []Condition{
			{Type: ConditionPath, Operator: OpContains, Value: path},
		},
		Action:    ActionBlock,
		CreatedAt: time.Now(),
	}
}
