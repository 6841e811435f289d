package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// RuleSet is a versioned collection of rules as stored on disk or fetched
// from the tenant's rule source.
type RuleSet struct {
	// Version is the rule set schema version
	Version string `json:"version" yaml:"version"`
	// Rules is the full rule list, enabled or not
	Rules []*Rule `json:"rules" yaml:"rules"`
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		Version: "1.0",
		Rules:   []*Rule{},
	}
}

// Add appends a rule to the set.
func (s *RuleSet) Add(r *Rule) {
	s.Rules = append(s.Rules, r)
}

// Enabled returns only the enabled rules, in source order.
func (s *RuleSet) Enabled() []*Rule {
	var enabled []*Rule
	for _, r := range s.Rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	return enabled
}

// Validate validates every rule in the set and assigns IDs to rules that
// have none.
func (s *RuleSet) Validate() error {
	for i, r := range s.Rules {
		if r == nil {
			return fmt.Errorf("rule at index %d is nil", i)
		}
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %s (%q): %w", r.ID, r.Name, err)
		}
	}
	return nil
}

// LoadFromFile loads a rule set from a YAML or JSON file.
func LoadFromFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Load(f, path)
}

// Load loads a rule set from a reader. The filename decides the format:
// .json parses as JSON, anything else as YAML.
func Load(r io.Reader, filename string) (*RuleSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}

	set := NewRuleSet()

	if strings.HasSuffix(filename, ".json") {
		if err := json.Unmarshal(data, set); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, set); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}

	return set, nil
}

// SaveToFile writes the rule set to a YAML or JSON file, by extension.
func (s *RuleSet) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = yaml.Marshal(s)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
