// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"

	"github.com/reqdoc/reqdoc/internal/classify"
)

const (
	// LogLevelDebug logs every reconciliation and numbering pass.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs project level events.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recovered problems only: order conflicts, orphaned
	// sidecars, skipped schema files.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"

	// DefaultDebounce is the default watch debounce interval.
	DefaultDebounce = 300 * time.Millisecond

	maxDebounceMS = 60000
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidFormConfig is the sentinel error wrapped by InvalidFormConfigError.
	ErrInvalidFormConfig = errors.New("invalid form config")
	// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
	ErrInvalidWatchConfig = errors.New("invalid watch config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum level of log output.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// FormConfig declares a form extension in configuration. Project schema
	// files override entries with the same extension.
	FormConfig struct {
		Extension string `json:"extension" mapstructure:"extension"`
		Kind      string `json:"kind" mapstructure:"kind"`
		Title     string `json:"title,omitempty" mapstructure:"title"`
	}

	// InvalidFormConfigError is returned when a FormConfig has invalid fields.
	InvalidFormConfigError struct {
		Form   FormConfig
		Reason string
	}

	// WatchConfig configures watch mode.
	WatchConfig struct {
		DebounceMS int      `json:"debounce_ms" mapstructure:"debounce_ms"`
		Ignore     []string `json:"ignore,omitempty" mapstructure:"ignore"`
	}

	// InvalidWatchConfigError is returned when a WatchConfig has invalid fields.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// Config is the merged application configuration.
	Config struct {
		LogLevel LogLevel       `json:"log_level" mapstructure:"log_level"`
		Names    classify.Names `json:"names" mapstructure:"names"`
		Forms    []FormConfig   `json:"forms,omitempty" mapstructure:"forms"`
		Watch    WatchConfig    `json:"watch" mapstructure:"watch"`

		// Sources lists the files merged into this configuration, in merge
		// order. It is empty when only defaults apply.
		Sources []string `json:"-" mapstructure:"-"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// Validate returns an error if the LogLevel is not one of the defined levels.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// Level converts the LogLevel for the logger. Unknown values map to warn.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate checks the extension and kind of the form.
func (f FormConfig) Validate() error {
	switch {
	case len(f.Extension) < 2 || f.Extension[0] != '.':
		return &InvalidFormConfigError{Form: f, Reason: "extension must start with a dot"}
	case strings.ContainsAny(f.Extension[1:], "./\\ "):
		return &InvalidFormConfigError{Form: f, Reason: "extension must be a single segment"}
	case strings.TrimSpace(f.Kind) == "":
		return &InvalidFormConfigError{Form: f, Reason: "kind must not be empty"}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidFormConfigError) Error() string {
	return fmt.Sprintf("invalid form %q: %s", e.Form.Extension, e.Reason)
}

// Unwrap returns ErrInvalidFormConfig for errors.Is() compatibility.
func (e *InvalidFormConfigError) Unwrap() error { return ErrInvalidFormConfig }

// Debounce returns the debounce interval.
func (w WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMS) * time.Millisecond
}

// Validate checks the debounce range and every ignore pattern.
func (w WatchConfig) Validate() error {
	var errs []error
	if w.DebounceMS < 0 || w.DebounceMS > maxDebounceMS {
		errs = append(errs, fmt.Errorf("debounce_ms %d out of range 0-%d", w.DebounceMS, maxDebounceMS))
	}
	for i, p := range w.Ignore {
		if p == "" || !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("ignore[%d]: invalid pattern %q", i, p))
		}
	}
	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	return fmt.Sprintf("invalid watch config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// Validate checks every field and collects the failures.
func (c Config) Validate() error {
	var errs []error
	if err := c.LogLevel.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Names.Validate(); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]int, len(c.Forms))
	for i, f := range c.Forms {
		if err := f.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		ext := strings.ToLower(f.Extension)
		if first, dup := seen[ext]; dup {
			errs = append(errs, &InvalidFormConfigError{Form: f, Reason: fmt.Sprintf("duplicate of forms[%d]", first)})
			continue
		}
		seen[ext] = i
	}
	if err := c.Watch.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Unwrap returns ErrInvalidConfig and the field errors for errors.Is()
// compatibility.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: LogLevelWarn,
		Names:    classify.DefaultNames(),
		Watch: WatchConfig{
			DebounceMS: int(DefaultDebounce / time.Millisecond),
		},
	}
}
