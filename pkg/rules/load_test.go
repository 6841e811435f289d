package rules

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
version: "1.0"
rules:
  - id: geo-block
    name: Block embargoed regions
    enabled: true
    priority: 100
    action: block
    conditions:
      - type: country
        operator: in_list
        list: [CN, RU, KP]
  - name: Challenge scrapers
    enabled: true
    priority: 90
    action: challenge
    conditions:
      - type: bot_score
        operator: greater_than
        number: 60
`

func TestLoadYAML(t *testing.T) {
	set, err := Load(strings.NewReader(sampleYAML), "rules.yaml")
	require.NoError(t, err)
	require.Len(t, set.Rules, 2)

	geo := set.Rules[0]
	assert.Equal(t, "geo-block", geo.ID)
	assert.Equal(t, ActionBlock, geo.Action)
	assert.Equal(t, 100, geo.Priority)
	require.Len(t, geo.Conditions, 1)
	assert.Equal(t, ConditionCountry, geo.Conditions[0].Type)
	assert.Equal(t, []string{"CN", "RU", "KP"}, geo.Conditions[0].List)

	// Missing IDs are filled in during validation.
	assert.NotEmpty(t, set.Rules[1].ID)
}

func TestLoadJSON(t *testing.T) {
	src := `{
	  "version": "1.0",
	  "rules": [
	    {
	      "id": "r1",
	      "name": "block probe paths",
	      "enabled": true,
	      "priority": 10,
	      "action": "block",
	      "conditions": [
	        {"type": "path", "operator": "contains", "value": "/.env"}
	      ]
	    }
	  ]
	}`

	set, err := Load(strings.NewReader(src), "rules.json")
	require.NoError(t, err)
	require.Len(t, set.Rules, 1)
	assert.Equal(t, ActionBlock, set.Rules[0].Action)
}

func TestLoadRejectsBadAction(t *testing.T) {
	src := `
rules:
  - id: r1
    enabled: true
    action: quarantine
    conditions:
      - type: ip
        operator: equals
        value: 1.2.3.4
`
	_, err := Load(strings.NewReader(src), "rules.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAction), "want ErrInvalidAction, got %v", err)
}

func TestLoadRejectsBadConditions(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{
			"numeric operator on string type",
			`rules:
  - id: r1
    enabled: true
    action: block
    conditions:
      - type: path
        operator: greater_than
        number: 4
`,
		},
		{
			"in_list without list",
			`rules:
  - id: r1
    enabled: true
    action: block
    conditions:
      - type: country
        operator: in_list
`,
		},
		{
			"unknown condition type",
			`rules:
  - id: r1
    enabled: true
    action: block
    conditions:
      - type: asn
        operator: equals
        value: "13335"
`,
		},
		{
			"rule without conditions",
			`rules:
  - id: r1
    enabled: true
    action: block
    conditions: []
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.src), "rules.yaml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCondition), "want ErrInvalidCondition, got %v", err)
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	set := NewRuleSet()
	set.Add(BlockCountries("CN", "RU"))
	set.Add(BlockHighBotScore(75))
	set.Add(BlockPath("/wp-admin"))
	require.NoError(t, set.Validate())

	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, set.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Rules, 3)

	for i, r := range loaded.Rules {
		assert.Equal(t, set.Rules[i].ID, r.ID)
		assert.Equal(t, set.Rules[i].Action, r.Action)
		assert.Equal(t, set.Rules[i].Priority, r.Priority)
	}
}

func TestEnabledFilters(t *testing.T) {
	set := NewRuleSet()
	on := BlockPath("/a")
	off := BlockPath("/b")
	off.Enabled = false
	set.Add(on)
	set.Add(off)

	enabled := set.Enabled()
	require.Len(t, enabled, 1)
	assert.Equal(t, on.ID, enabled[0].ID)
}
