// Package config provides ini-style machine profile configuration.
// It follows the section/option layout common to machine host software:
//
//	[machine]
//	max_velocity_x: 3000
//	accel_x: 500
//
//	[playback]
//	fallback_rate: 100
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Config provides access to a parsed configuration file.
type Config struct {
	sections map[string]*Section
	order    []string // Maintains section order
}

// New creates a new empty Config.
func New() *Config {
	return &Config{
		sections: make(map[string]*Section),
	}
}

// Load reads a configuration file and returns a Config.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: unable to open %s: %w", path, err)
	}
	defer f.Close()

	c := New()
	if err := c.parse(f, path); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadString parses configuration from a string (used in tests).
func LoadString(data string) (*Config, error) {
	c := New()
	if err := c.parse(strings.NewReader(data), "<string>"); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) parse(r io.Reader, path string) error {
	var currentSection string
	var currentOptions map[string]string

	flush := func() {
		if currentSection != "" {
			c.setSection(currentSection, currentOptions)
		}
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return fmt.Errorf("config: %s:%d: malformed section header: %s", path, lineNum, line)
			}
			flush()
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			currentOptions = make(map[string]string)
			continue
		}

		// Option lines use "name: value" or "name = value"
		sep := strings.IndexAny(line, ":=")
		if sep < 0 {
			return fmt.Errorf("config: %s:%d: expected 'option: value', got: %s", path, lineNum, line)
		}
		if currentSection == "" {
			return fmt.Errorf("config: %s:%d: option outside of section: %s", path, lineNum, line)
		}
		name := strings.ToLower(strings.TrimSpace(line[:sep]))
		value := strings.TrimSpace(line[sep+1:])
		currentOptions[name] = value
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	flush()
	return nil
}

func (c *Config) setSection(name string, options map[string]string) {
	if _, exists := c.sections[name]; !exists {
		c.order = append(c.order, name)
	}
	c.sections[name] = newSection(name, options)
}

// HasSection reports whether a section exists.
func (c *Config) HasSection(name string) bool {
	_, ok := c.sections[name]
	return ok
}

// Section returns the named section, or an empty section if absent.
// Typed getters on an empty section return their fallbacks, so callers
// get documented defaults for free.
func (c *Config) Section(name string) *Section {
	if s, ok := c.sections[name]; ok {
		return s
	}
	return newSection(name, nil)
}

// SectionNames returns the section names in file order.
func (c *Config) SectionNames() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// SortedSectionNames returns the section names sorted alphabetically.
func (c *Config) SortedSectionNames() []string {
	names := c.SectionNames()
	sort.Strings(names)
	return names
}
