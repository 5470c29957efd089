package config

import (
	"strconv"
	"strings"

	"gcodeview/pkg/errors"
)

// Section provides access to a config section with typed getters.
type Section struct {
	name    string
	options map[string]string
}

func newSection(name string, options map[string]string) *Section {
	opts := make(map[string]string, len(options))
	for k, v := range options {
		opts[strings.ToLower(k)] = v
	}
	return &Section{
		name:    name,
		options: opts,
	}
}

// Name returns the section name.
func (s *Section) Name() string {
	return s.name
}

// HasOption reports whether the option is present.
func (s *Section) HasOption(option string) bool {
	_, ok := s.options[strings.ToLower(option)]
	return ok
}

// Get returns a string option, or the fallback if absent.
func (s *Section) Get(option string, fallback ...string) (string, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return "", errors.ConfigOptionError(s.name, option)
	}
	return v, nil
}

// GetFloat returns a float option, or the fallback if absent.
func (s *Section) GetFloat(option string, fallback ...float64) (float64, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, errors.ConfigOptionError(s.name, option)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.ConfigValidationError(s.name, option, "not a number: "+v)
	}
	return f, nil
}

// GetPositiveFloat returns a float option that must be > 0.
func (s *Section) GetPositiveFloat(option string, fallback float64) (float64, error) {
	f, err := s.GetFloat(option, fallback)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, errors.ConfigValidationError(s.name, option, "must be > 0")
	}
	return f, nil
}

// GetInt returns an integer option, or the fallback if absent.
func (s *Section) GetInt(option string, fallback ...int) (int, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return 0, errors.ConfigOptionError(s.name, option)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.ConfigValidationError(s.name, option, "not an integer: "+v)
	}
	return i, nil
}

// GetBool returns a boolean option, or the fallback if absent.
func (s *Section) GetBool(option string, fallback ...bool) (bool, error) {
	v, ok := s.options[strings.ToLower(option)]
	if !ok {
		if len(fallback) > 0 {
			return fallback[0], nil
		}
		return false, errors.ConfigOptionError(s.name, option)
	}
	switch strings.ToLower(v) {
	case "true", "yes", "on", "1":
		return true, nil
	case "false", "no", "off", "0":
		return false, nil
	}
	return false, errors.ConfigValidationError(s.name, option, "not a boolean: "+v)
}
