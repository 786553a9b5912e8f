// Package pkg provides codecs for PlayStation 2 memory card save data.
// This file contains the parser and serializer for title.cfg manifests used
// by homebrew launchers.
package pkg

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// TitleCfgEntry is one key/value pair of a title.cfg manifest
type TitleCfgEntry struct {
	Key   string
	Value string
}

// TitleCfg is an insertion-ordered key/value mapping parsed line by line
type TitleCfg struct {
	Entries []TitleCfgEntry
}

// TitleCfgField describes one known title.cfg key for editors: whether it is
// mandatory, tooltip text, and an optional enumerated value set.
type TitleCfgField struct {
	Key       string
	Mandatory bool
	Tooltip   string
	Values    []string
}

// TitleCfgHelper enumerates the known title.cfg keys. It is a process-wide
// constant passed explicitly wherever key metadata is needed.
var TitleCfgHelper = []TitleCfgField{
	{Key: "title", Mandatory: true, Tooltip: "Name shown by the launcher"},
	{Key: "Description", Mandatory: true, Tooltip: "Short description of the application"},
	{Key: "boot", Mandatory: true, Tooltip: "ELF file booted by the launcher"},
	{Key: "Release", Mandatory: true, Tooltip: "Release date (YYYY-MM-DD)"},
	{Key: "Developer", Mandatory: true, Tooltip: "Author or team name"},
	{Key: "source", Mandatory: true, Tooltip: "Source code or homepage URL"},
	{Key: "Version", Mandatory: true, Tooltip: "Application version string"},
	{Key: "Genre", Tooltip: "Application genre", Values: []string{"App", "Game", "Emulator", "Demo"}},
	{Key: "Notes", Tooltip: "Free-form notes"},
	{Key: "Parental", Tooltip: "Parental control level", Values: []string{"0", "1", "2", "3"}},
	{Key: "Vmode", Tooltip: "Video mode", Values: []string{"NTSC", "PAL", "AUTO"}},
	{Key: "Players", Tooltip: "Number of players"},
}

// MandatoryTitleCfgKeys returns the mandatory keys of the helper table in
// declaration order.
func MandatoryTitleCfgKeys(helper []TitleCfgField) []string {
	var keys []string
	for _, field := range helper {
		if field.Mandatory {
			keys = append(keys, field.Key)
		}
	}
	return keys
}

// ParseTitleCfg parses a text buffer as one key=value pair per line,
// splitting on the first "=" so values may themselves contain "=". Lines
// without a "=" are ignored. Buffers that are not valid UTF-8 fail with
// ErrEncoding.
func ParseTitleCfg(reader io.Reader) (*TitleCfg, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read title.cfg: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: title.cfg is not valid UTF-8", ErrEncoding)
	}

	cfg := &TitleCfg{}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		cfg.Entries = append(cfg.Entries, TitleCfgEntry{Key: key, Value: value})
	}
	return cfg, nil
}

// Serialize writes the manifest as key=value lines in insertion order
func (c *TitleCfg) Serialize(writer io.Writer) error {
	for _, entry := range c.Entries {
		if _, err := fmt.Fprintf(writer, "%s=%s\n", entry.Key, entry.Value); err != nil {
			return fmt.Errorf("failed to write title.cfg: %w", err)
		}
	}
	return nil
}

// Get returns the value of the first entry with the given key
func (c *TitleCfg) Get(key string) (string, bool) {
	for _, entry := range c.Entries {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return "", false
}

// Set replaces the value of the first entry with the given key, appending a
// new entry when the key is absent.
func (c *TitleCfg) Set(key, value string) {
	for i := range c.Entries {
		if c.Entries[i].Key == key {
			c.Entries[i].Value = value
			return
		}
	}
	c.Entries = append(c.Entries, TitleCfgEntry{Key: key, Value: value})
}

// HasMandatoryFields reports whether every mandatory key of the helper table
// is present.
func (c *TitleCfg) HasMandatoryFields(helper []TitleCfgField) bool {
	for _, key := range MandatoryTitleCfgKeys(helper) {
		if _, ok := c.Get(key); !ok {
			return false
		}
	}
	return true
}

// AddMissingFields inserts every missing mandatory key with an empty value,
// in helper table order.
func (c *TitleCfg) AddMissingFields(helper []TitleCfgField) {
	for _, key := range MandatoryTitleCfgKeys(helper) {
		if _, ok := c.Get(key); !ok {
			c.Entries = append(c.Entries, TitleCfgEntry{Key: key})
		}
	}
}
