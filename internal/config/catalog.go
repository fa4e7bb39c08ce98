package config

import (
	"fmt"
	"os"

	"teamportal/internal/model"

	"gopkg.in/yaml.v3"
)

// Catalog is the problem statement catalog and reward wheel file
type Catalog struct {
	Problems []model.Problem `yaml:"problems"`
	Rewards  []string        `yaml:"rewards"`
}

// Roster is a bulk team definition file consumed by the seed tool
type Roster struct {
	Teams []RosterTeam `yaml:"teams"`
}

// RosterTeam is one team entry of a roster
type RosterTeam struct {
	TeamName string `yaml:"teamName"`
	TeamCode string `yaml:"teamCode"`
	Passcode string `yaml:"passcode"`
}

// LoadCatalog reads and validates a catalog file
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects blank or duplicate ids and negative limits
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Problems))
	for _, p := range c.Problems {
		if p.ID == "" {
			return fmt.Errorf("catalog problem %q has no id", p.Title)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate catalog problem id %q", p.ID)
		}
		if p.Limit < 0 {
			return fmt.Errorf("catalog problem %q has negative limit", p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}

// LoadRoster reads a roster file
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	var r Roster
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}
	return &r, nil
}
