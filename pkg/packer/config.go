// Package packer assembles an on-disk folder into a PSU archive, driven by
// a declarative psu.toml configuration: name, timestamp, include/exclude
// sets and optional icon.sys generation.
package packer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hansbonini/psutools/pkg"
)

// ConfigFilename is the configuration file looked up inside the source
// folder. It is never packed into the archive, under any configuration.
const ConfigFilename = "psu.toml"

// RulesFilename is the optional timestamp rules file co-located with the
// configuration.
const RulesFilename = "sas_rules.yaml"

// timestampLayout is the accepted format of the timestamp field
const timestampLayout = "2006-01-02 15:04:05"

// nameRegexp is the character class a pack name must match
var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)

// Packer error taxonomy
var (
	// ErrInvalidName is returned when the pack name violates the allowed
	// character class.
	ErrInvalidName = errors.New("pack name contains characters outside [A-Za-z0-9_- ]")

	// ErrIncludeExcludeConflict is returned when both lists are supplied
	ErrIncludeExcludeConflict = errors.New("include and exclude are mutually exclusive")

	// ErrPackWorkerFailed replaces a panic captured inside the pack worker
	ErrPackWorkerFailed = errors.New("pack worker failed")
)

// ConfigError reports a psu.toml that failed to parse or validate
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("psu.toml: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("psu.toml: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IconSysConfig describes the optional icon.sys synthesis. Colors are
// 4-component r,g,b,a rows; light fields are 4-component float rows.
type IconSysConfig struct {
	Flags                  *uint16     `toml:"flags"`
	Preset                 string      `toml:"preset"`
	Title                  string      `toml:"title"`
	LinebreakPos           uint16      `toml:"linebreak_pos"`
	BackgroundTransparency uint32      `toml:"background_transparency"`
	BackgroundColors       [][]uint8   `toml:"background_colors"`
	LightDirections        [][]float32 `toml:"light_directions"`
	LightColors            [][]float32 `toml:"light_colors"`
	AmbientColor           []float32   `toml:"ambient_color"`
}

// presetFlags maps the preset field to an icon.sys flags value
var presetFlags = map[string]uint16{
	"save":          pkg.IconSysFlagSaveFile,
	"software":      pkg.IconSysFlagSoftware,
	"pocketstation": pkg.IconSysFlagPocketstation,
	"settings":      pkg.IconSysFlagSettings,
	"system":        pkg.IconSysFlagSystemDriver,
}

// Config is the parsed and validated pack configuration
type Config struct {
	Name      string
	Timestamp *time.Time
	Include   []string
	Exclude   []string
	IconSys   *IconSysConfig
}

// rawConfig mirrors the on-disk [config] table before validation
type rawConfig struct {
	Config struct {
		Name      string         `toml:"name"`
		Timestamp string         `toml:"timestamp"`
		Include   []string       `toml:"include"`
		Exclude   []string       `toml:"exclude"`
		IconSys   *IconSysConfig `toml:"icon_sys"`
	} `toml:"config"`
}

// LoadConfig reads and validates <folder>/psu.toml
func LoadConfig(folder string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(folder, ConfigFilename))
	if err != nil {
		return nil, &ConfigError{Message: "cannot read configuration", Err: err}
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "cannot parse configuration", Err: err}
	}

	config := &Config{
		Name:    raw.Config.Name,
		Include: raw.Config.Include,
		Exclude: raw.Config.Exclude,
		IconSys: raw.Config.IconSys,
	}
	if raw.Config.Timestamp != "" {
		parsed, err := time.ParseInLocation(timestampLayout, raw.Config.Timestamp, time.Local)
		if err != nil {
			return nil, &ConfigError{Message: fmt.Sprintf("invalid timestamp %q", raw.Config.Timestamp), Err: err}
		}
		config.Timestamp = &parsed
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration invariants
func (c *Config) Validate() error {
	if !nameRegexp.MatchString(c.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, c.Name)
	}
	if len(c.Include) > 0 && len(c.Exclude) > 0 {
		return ErrIncludeExcludeConflict
	}
	if c.IconSys != nil {
		if err := c.IconSys.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *IconSysConfig) validate() error {
	if s.Flags == nil && s.Preset != "" {
		if _, ok := presetFlags[s.Preset]; !ok {
			return &ConfigError{Message: fmt.Sprintf("unknown icon_sys preset %q", s.Preset)}
		}
	}
	if len(s.BackgroundColors) != 0 && len(s.BackgroundColors) != 4 {
		return &ConfigError{Message: "icon_sys.background_colors must hold 4 colors"}
	}
	for _, color := range s.BackgroundColors {
		if len(color) != 4 {
			return &ConfigError{Message: "icon_sys background colors are r,g,b,a quadruples"}
		}
	}
	if len(s.LightDirections) != 0 && len(s.LightDirections) != 3 {
		return &ConfigError{Message: "icon_sys.light_directions must hold 3 vectors"}
	}
	if len(s.LightColors) != 0 && len(s.LightColors) != 3 {
		return &ConfigError{Message: "icon_sys.light_colors must hold 3 colors"}
	}
	for _, row := range append(append([][]float32{}, s.LightDirections...), s.LightColors...) {
		if len(row) != 4 {
			return &ConfigError{Message: "icon_sys light fields are 4-component vectors"}
		}
	}
	if len(s.AmbientColor) != 0 && len(s.AmbientColor) != 4 {
		return &ConfigError{Message: "icon_sys.ambient_color is a 4-component vector"}
	}
	return nil
}

// Model builds the IconSys model the configuration describes
func (s *IconSysConfig) Model() *pkg.IconSys {
	sys := &pkg.IconSys{
		Title:                  s.Title,
		LineBreak:              s.LinebreakPos,
		BackgroundTransparency: s.BackgroundTransparency,
		IconFile:               "icon.icn",
		CopyIconFile:           "icon.icn",
		DeleteIconFile:         "icon.icn",
	}
	switch {
	case s.Flags != nil:
		sys.Flags = *s.Flags
	case s.Preset != "":
		sys.Flags = presetFlags[s.Preset]
	}
	for i, color := range s.BackgroundColors {
		sys.BackgroundColors[i] = pkg.IconSysColor{R: color[0], G: color[1], B: color[2], A: color[3]}
	}
	for i, row := range s.LightDirections {
		copy(sys.LightDirections[i][:], row)
	}
	for i, row := range s.LightColors {
		copy(sys.LightColors[i][:], row)
	}
	copy(sys.AmbientColor[:], s.AmbientColor)
	return sys
}
