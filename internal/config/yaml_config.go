package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Program represents the structure of the program.yaml file.
// Commercial constants and profile options that change per programme cycle.
type Program struct {
	Name            string        `yaml:"name"`
	FeatureRequest  FeatureConfig `yaml:"feature_request"`
	SocialPlatforms []string      `yaml:"social_platforms"`
	SpotlightSize   int           `yaml:"spotlight_size"`
}

// FeatureConfig defines the fixed fee for a feature request.
type FeatureConfig struct {
	Amount   int64  `yaml:"amount"`   // Minor currency units, e.g. cents
	Currency string `yaml:"currency"` // ISO 4217 code
}

// DefaultProgram returns the program settings used when no file is present.
func DefaultProgram() *Program {
	return &Program{
		Name: "Top100 Africa Future Leaders",
		FeatureRequest: FeatureConfig{
			Amount:   50000,
			Currency: "USD",
		},
		SocialPlatforms: []string{"linkedin", "twitter", "instagram", "website"},
		SpotlightSize:   6,
	}
}

// LoadProgram loads the program file at path.
// Returns the defaults without error if the file doesn't exist.
func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultProgram(), nil
		}
		return nil, err
	}

	return ParseProgram(data)
}

// ParseProgram decodes program YAML, filling unset fields with defaults.
func ParseProgram(data []byte) (*Program, error) {
	p := DefaultProgram()
	var parsed Program
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse program file: %w", err)
	}

	if parsed.Name != "" {
		p.Name = parsed.Name
	}
	if parsed.FeatureRequest.Amount != 0 {
		p.FeatureRequest.Amount = parsed.FeatureRequest.Amount
	}
	if parsed.FeatureRequest.Currency != "" {
		p.FeatureRequest.Currency = strings.ToUpper(parsed.FeatureRequest.Currency)
	}
	if len(parsed.SocialPlatforms) > 0 {
		p.SocialPlatforms = make([]string, 0, len(parsed.SocialPlatforms))
		for _, platform := range parsed.SocialPlatforms {
			p.SocialPlatforms = append(p.SocialPlatforms, strings.ToLower(strings.TrimSpace(platform)))
		}
	}
	if parsed.SpotlightSize > 0 {
		p.SpotlightSize = parsed.SpotlightSize
	}

	if p.FeatureRequest.Amount < 0 {
		return nil, fmt.Errorf("feature_request.amount must not be negative")
	}
	if len(p.FeatureRequest.Currency) != 3 {
		return nil, fmt.Errorf("feature_request.currency must be a 3-letter code, got %q", p.FeatureRequest.Currency)
	}

	return p, nil
}

// HasPlatform reports whether a social platform key is accepted on profiles.
func (p *Program) HasPlatform(key string) bool {
	if p == nil {
		return false
	}
	for _, platform := range p.SocialPlatforms {
		if platform == key {
			return true
		}
	}
	return false
}
