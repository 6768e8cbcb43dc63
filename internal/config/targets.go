package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Relaunch strategies, mirrored from the desktop package to keep config free
// of automation dependencies
const (
	StrategySpotlight = "spotlight"
	StrategyBundle    = "bundle"
)

// TargetSpec describes one supervised application
type TargetSpec struct {
	// Name is the process name, matched exactly but ignoring case
	Name     string `yaml:"name" json:"name"`
	Strategy string `yaml:"strategy" json:"strategy"`
	// Query is typed into Spotlight; defaults to Name
	Query string `yaml:"query,omitempty" json:"query,omitempty"`
	// Bundle is the .app path opened by the bundle strategy
	Bundle string `yaml:"bundle,omitempty" json:"bundle,omitempty"`
}

// Argument returns the strategy argument: the query or the bundle path
func (t TargetSpec) Argument() string {
	if t.Strategy == StrategyBundle {
		return t.Bundle
	}
	if t.Query != "" {
		return t.Query
	}
	return t.Name
}

// TargetsFile is the on-disk targets document
type TargetsFile struct {
	Targets []TargetSpec `yaml:"targets"`
}

// DefaultTargets returns the two built-in focus applications
func DefaultTargets() []TargetSpec {
	return []TargetSpec{
		{
			Name:     "Cold Turkey Blocker",
			Strategy: StrategySpotlight,
			Query:    "Cold Turkey Blocker",
		},
		{
			Name:     "SelfControl",
			Strategy: StrategyBundle,
			Bundle:   "/Applications/SelfControl.app",
		},
	}
}

// LoadTargets reads the targets file. A missing file yields the defaults.
func LoadTargets(path string) ([]TargetSpec, error) {
	if path == "" {
		return DefaultTargets(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultTargets(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read targets file: %w", err)
	}

	var file TargetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse targets file: %w", err)
	}

	if err := ValidateTargets(file.Targets); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file.Targets, nil
}

// ValidateTargets checks names, strategies and arguments
func ValidateTargets(targets []TargetSpec) error {
	if len(targets) == 0 {
		return errors.New("at least one target is required")
	}

	seen := make(map[string]bool, len(targets))
	for i, t := range targets {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("target %d is missing a name", i)
		}
		key := strings.ToLower(t.Name)
		if seen[key] {
			return fmt.Errorf("duplicate target %q", t.Name)
		}
		seen[key] = true

		switch t.Strategy {
		case StrategySpotlight:
		case StrategyBundle:
			if t.Bundle == "" {
				return fmt.Errorf("target %q: bundle strategy needs a bundle path", t.Name)
			}
		default:
			return fmt.Errorf("target %q: unknown strategy %q (want %s or %s)",
				t.Name, t.Strategy, StrategySpotlight, StrategyBundle)
		}
	}
	return nil
}

// ExampleTargets renders the defaults as a commented targets file
func ExampleTargets() (string, error) {
	data, err := yaml.Marshal(TargetsFile{Targets: DefaultTargets()})
	if err != nil {
		return "", fmt.Errorf("failed to render example targets: %w", err)
	}
	return "# focusguard targets\n" +
		"# strategy: spotlight (types query into Spotlight) or bundle (opens the .app from Terminal)\n" +
		string(data), nil
}
