// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/reqdoc/reqdoc/internal/classify"
)

func TestLogLevel_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level    LogLevel
		wantErr  bool
		wantLogs log.Level
	}{
		{LogLevelDebug, false, log.DebugLevel},
		{LogLevelInfo, false, log.InfoLevel},
		{LogLevelWarn, false, log.WarnLevel},
		{LogLevelError, false, log.ErrorLevel},
		{"", true, log.WarnLevel},
		{"DEBUG", true, log.DebugLevel},
		{"trace", true, log.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			t.Parallel()

			err := tt.level.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("LogLevel(%q).Validate() error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidLogLevel) {
				t.Errorf("error should wrap ErrInvalidLogLevel, got: %v", err)
			}
			if got := tt.level.Level(); got != tt.wantLogs {
				t.Errorf("Level() = %v, want %v", got, tt.wantLogs)
			}
		})
	}
}

func TestFormConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		form    FormConfig
		wantErr bool
	}{
		{"valid", FormConfig{Extension: ".req", Kind: "requirement"}, false},
		{"upper case extension", FormConfig{Extension: ".REQ", Kind: "requirement"}, false},
		{"no dot", FormConfig{Extension: "req", Kind: "requirement"}, true},
		{"nested", FormConfig{Extension: ".a/b", Kind: "requirement"}, true},
		{"blank kind", FormConfig{Extension: ".req", Kind: "  "}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.form.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidFormConfig) {
				t.Errorf("error should wrap ErrInvalidFormConfig, got: %v", err)
			}
		})
	}
}

func TestWatchConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (WatchConfig{DebounceMS: 0, Ignore: []string{"**/*.tmp", "build/**"}}).Validate(); err != nil {
		t.Errorf("valid watch config rejected: %v", err)
	}

	err := WatchConfig{DebounceMS: 60001, Ignore: []string{"", "{a,b"}}.Validate()
	var werr *InvalidWatchConfigError
	if !errors.As(err, &werr) {
		t.Fatalf("Validate() error = %v, want InvalidWatchConfigError", err)
	}
	if len(werr.FieldErrors) != 3 {
		t.Errorf("FieldErrors = %v, want 3 entries", werr.FieldErrors)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig() is invalid: %v", err)
	}

	cfg := DefaultConfig()
	cfg.LogLevel = "loud"
	cfg.Names.CommentSuffix = "comment"
	cfg.Forms = []FormConfig{{Extension: ".req", Kind: "a"}, {Extension: ".Req", Kind: "b"}}
	err := cfg.Validate()

	var cerr *InvalidConfigError
	if !errors.As(err, &cerr) {
		t.Fatalf("Validate() error = %v, want InvalidConfigError", err)
	}
	if len(cerr.FieldErrors) != 3 {
		t.Errorf("FieldErrors = %v, want 3 entries", cerr.FieldErrors)
	}
	for _, target := range []error{ErrInvalidConfig, ErrInvalidLogLevel, classify.ErrInvalidNames, ErrInvalidFormConfig} {
		if !errors.Is(err, target) {
			t.Errorf("error does not wrap %v", target)
		}
	}
}
