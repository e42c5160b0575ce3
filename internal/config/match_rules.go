package config

import (
	"fmt"
	"io"
	"os"

	"github.com/zachsrosen/pb-operations-suite-sub002/internal/bom"
	"gopkg.in/yaml.v3"
)

// MatchRules tunes catalog matching without code changes.
type MatchRules struct {
	SimilarityThreshold *float64 `yaml:"similarity_threshold"`
	// DisabledSources are catalog sources treated as always-false.
	DisabledSources []string `yaml:"disabled_sources"`
}

// DefaultMatchRules returns rules equivalent to an empty file.
func DefaultMatchRules() *MatchRules {
	return &MatchRules{}
}

// LoadMatchRules reads a YAML rules file. A missing file yields the defaults.
func LoadMatchRules(path string) (*MatchRules, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return DefaultMatchRules(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseMatchRules(f)
}

// ParseMatchRules parses rules from an io.Reader.
func ParseMatchRules(r io.Reader) (*MatchRules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	rules := DefaultMatchRules()
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, err
	}
	if t := rules.SimilarityThreshold; t != nil && (*t < 0 || *t > 1) {
		return nil, fmt.Errorf("similarity_threshold must be within [0, 1], got %v", *t)
	}
	return rules, nil
}

// Matcher builds the token matcher described by the rules.
func (r *MatchRules) Matcher() bom.Matcher {
	m := bom.NewMatcher()
	if r != nil && r.SimilarityThreshold != nil {
		m.SimilarityThreshold = *r.SimilarityThreshold
	}
	return m
}
