// Package sas implements the deterministic timestamp scheduler used by the
// SAS folder naming convention: save folders are assigned reproducible
// creation times derived from their category prefix and name, so the PS2
// browser lists them in a stable order.
package sas

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Special category keys
const (
	// CategoryAPPS matches only the literal folder name "APPS"
	CategoryAPPS = "APPS"
	// CategoryDefault matches any name no other category claims
	CategoryDefault = "DEFAULT"
)

// Category is one entry of the rules table: a canonical key (ordinarily a
// folder name prefix) and the full folder names treated as members of the
// category without carrying its prefix.
type Category struct {
	Key     string   `yaml:"key"`
	Aliases []string `yaml:"aliases,omitempty"`
}

// TimestampRules drives the scheduler. The category order is significant:
// earlier categories receive later timestamps and therefore sort first in
// the browser.
type TimestampRules struct {
	SecondsBetweenItems int        `yaml:"seconds_between_items"`
	SlotsPerCategory    int        `yaml:"slots_per_category"`
	Categories          []Category `yaml:"categories"`
}

// DefaultRules returns the built-in rules table: 2 seconds between items,
// 86400 slots per category, and the canonical 13-category order.
func DefaultRules() *TimestampRules {
	return &TimestampRules{
		SecondsBetweenItems: 2,
		SlotsPerCategory:    86400,
		Categories: []Category{
			{Key: CategoryAPPS},
			{Key: "APP_", Aliases: []string{"OSDXMB", "XEBPLUS", "NEUTRINO", "WLE"}},
			{Key: "GME_", Aliases: []string{"OPL"}},
			{Key: "EMU_", Aliases: []string{"POPS", "RETROARCH"}},
			{Key: "MED_", Aliases: []string{"SMS"}},
			{Key: "DEM_"},
			{Key: "TLS_"},
			{Key: "PS1_"},
			{Key: "DST_"},
			{Key: "DBG_"},
			{Key: "RAA_"},
			{Key: "SYS_", Aliases: []string{"BOOT", "FMCB", "FHDB", "OPENTUNA"}},
			{Key: CategoryDefault},
		},
	}
}

// LoadRules reads a rules table from a YAML file
func LoadRules(filename string) (*TimestampRules, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules := &TimestampRules{}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if rules.SecondsBetweenItems <= 0 || rules.SlotsPerCategory <= 0 {
		return nil, fmt.Errorf("invalid rules: spacing and slot count must be positive")
	}
	return rules, nil
}
