package narrative

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CategoryGroup is a named set of product-name tokens, e.g. stout.
type CategoryGroup struct {
	Name      string   `yaml:"name"`
	Tokens    []string `yaml:"tokens"`
	Threshold float64  `yaml:"threshold"` // share percent that must be exceeded
}

// Matches reports whether a product name contains any token, ignoring case.
func (g CategoryGroup) Matches(product string) bool {
	p := strings.ToLower(product)
	for _, t := range g.Tokens {
		if t != "" && strings.Contains(p, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// Profile holds the domain constants the text rules use.
type Profile struct {
	Groups             []CategoryGroup `yaml:"groups"`
	Minor              CategoryGroup   `yaml:"minor"`
	StabilityThreshold float64         `yaml:"stability_threshold"`
}

// DefaultProfile is the beer portfolio split used across the field team.
func DefaultProfile() Profile {
	return Profile{
		Groups: []CategoryGroup{
			{Name: "stout", Tokens: []string{"guinness", "stout", "porter"}, Threshold: 50},
			{Name: "lager", Tokens: []string{"lager", "carlsberg", "heineken", "hop house", "coors", "moretti", "harp"}, Threshold: 50},
		},
		Minor:              CategoryGroup{Name: "cider", Tokens: []string{"cider", "rockshore", "bulmers"}, Threshold: 5},
		StabilityThreshold: 5,
	}
}

// LoadProfile reads a YAML profile. Zero thresholds fall back to the
// defaults.
func LoadProfile(path string) (Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	def := DefaultProfile()
	if len(p.Groups) == 0 {
		p.Groups = def.Groups
	}
	for i := range p.Groups {
		if p.Groups[i].Threshold == 0 {
			p.Groups[i].Threshold = 50
		}
	}
	if p.Minor.Name == "" {
		p.Minor = def.Minor
	}
	if p.Minor.Threshold == 0 {
		p.Minor.Threshold = def.Minor.Threshold
	}
	if p.StabilityThreshold == 0 {
		p.StabilityThreshold = def.StabilityThreshold
	}
	return p, nil
}
