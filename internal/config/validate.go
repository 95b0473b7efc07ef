package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors.
var (
	ErrInvalidLogLevel     = errors.New("log level must be debug, info, warn, or error")
	ErrInvalidOutputFormat = errors.New("output format must be text, json, or yaml")
	ErrEmptyVersion        = errors.New("release version cannot be empty")
	ErrInvalidVersion      = errors.New("release version must look like YY.MM")
)

// validVersionRegex matches release versions such as 20.04 or 22.10.
var validVersionRegex = regexp.MustCompile(`^[0-9]{2}\.[0-9]{2}$`)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validOutputFormats = map[string]bool{
	"text": true,
	"json": true,
	"yaml": true,
}

// ValidationError wraps a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateLogLevel validates a log level name (case-insensitive).
func ValidateLogLevel(level string) error {
	if !validLogLevels[strings.ToLower(level)] {
		return &ValidationError{
			Field:   "log_level",
			Value:   level,
			Message: "must be one of debug, info, warn, error",
			Err:     ErrInvalidLogLevel,
		}
	}
	return nil
}

// ValidateOutputFormat validates an output format name.
func ValidateOutputFormat(format string) error {
	if !validOutputFormats[format] {
		return &ValidationError{
			Field:   "format",
			Value:   format,
			Message: "must be one of text, json, yaml",
			Err:     ErrInvalidOutputFormat,
		}
	}
	return nil
}

// ValidateVersion validates a release version such as "22.04".
func ValidateVersion(version string) error {
	if version == "" {
		return &ValidationError{
			Field:   "version",
			Message: "cannot be empty",
			Err:     ErrEmptyVersion,
		}
	}
	if !validVersionRegex.MatchString(version) {
		return &ValidationError{
			Field:   "version",
			Value:   version,
			Message: "must be two-digit year and month separated by a dot",
			Err:     ErrInvalidVersion,
		}
	}
	return nil
}
