package rfm

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Segment is a named customer tier.
type Segment string

const (
	Gold   Segment = "Gold"
	Silver Segment = "Silver"
	Bronze Segment = "Bronze"
)

// Rule assigns every listed code to Segment.
type Rule struct {
	Segment Segment `yaml:"name" json:"name"`
	Codes   []Code  `yaml:"codes" json:"codes"`
}

// RuleSet is an ordered rule table with a catch-all segment.
// Build one with NewRuleSet or LoadRules; the zero value classifies
// everything as the empty segment.
type RuleSet struct {
	Rules    []Rule  `yaml:"segments" json:"segments"`
	Fallback Segment `yaml:"fallback" json:"fallback"`

	index map[Code]Segment
}

// DefaultRules returns the Gold/Silver/Bronze table.
func DefaultRules() *RuleSet {
	rs, err := NewRuleSet([]Rule{
		{Segment: Gold, Codes: []Code{"333", "332", "323", "322"}},
		{Segment: Silver, Codes: []Code{"221", "222", "223", "232", "231", "233"}},
	}, Bronze)
	if err != nil {
		panic(err)
	}
	return rs
}

// NewRuleSet validates and indexes a rule table.
func NewRuleSet(rules []Rule, fallback Segment) (*RuleSet, error) {
	rs := &RuleSet{Rules: rules, Fallback: fallback}
	if err := rs.compile(); err != nil {
		return nil, err
	}
	return rs, nil
}

// LoadRules reads a YAML rule table:
//
//	fallback: Bronze
//	segments:
//	  - name: Gold
//	    codes: ["333", "332"]
func LoadRules(path string) (*RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if err := rs.compile(); err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return &rs, nil
}

// Validate rejects empty names, malformed codes and codes claimed by two segments.
func (rs *RuleSet) Validate() error {
	if strings.TrimSpace(string(rs.Fallback)) == "" {
		return fmt.Errorf("fallback segment is required")
	}
	owner := map[Code]Segment{}
	for i, r := range rs.Rules {
		if strings.TrimSpace(string(r.Segment)) == "" {
			return fmt.Errorf("rule %d: segment name is required", i+1)
		}
		for _, c := range r.Codes {
			if !c.Valid() {
				return fmt.Errorf("rule %s: malformed code %q (want three digits 1-9)", r.Segment, c)
			}
			if prev, ok := owner[c]; ok && prev != r.Segment {
				return fmt.Errorf("code %s listed under both %s and %s", c, prev, r.Segment)
			}
			owner[c] = r.Segment
		}
	}
	return nil
}

func (rs *RuleSet) compile() error {
	if err := rs.Validate(); err != nil {
		return err
	}
	rs.index = make(map[Code]Segment)
	for _, r := range rs.Rules {
		for _, c := range r.Codes {
			if _, ok := rs.index[c]; !ok {
				rs.index[c] = r.Segment
			}
		}
	}
	return nil
}

// SegmentOf classifies a code. Unknown or malformed codes get the fallback.
func (rs *RuleSet) SegmentOf(code Code) Segment {
	if rs.index == nil {
		for _, r := range rs.Rules {
			for _, c := range r.Codes {
				if c == code {
					return r.Segment
				}
			}
		}
		return rs.Fallback
	}
	if s, ok := rs.index[code]; ok {
		return s
	}
	return rs.Fallback
}

// Segments lists rule segments in table order followed by the fallback.
func (rs *RuleSet) Segments() []Segment {
	out := make([]Segment, 0, len(rs.Rules)+1)
	seen := map[Segment]bool{}
	for _, r := range rs.Rules {
		if !seen[r.Segment] {
			seen[r.Segment] = true
			out = append(out, r.Segment)
		}
	}
	if !seen[rs.Fallback] {
		out = append(out, rs.Fallback)
	}
	return out
}
