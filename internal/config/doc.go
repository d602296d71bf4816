// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is merged from two files, both optional: the user file
// config.cue in the platform config directory ($XDG_CONFIG_HOME/reqdoc on
// Linux, ~/Library/Application Support/reqdoc on macOS, %APPDATA%\reqdoc on
// Windows), then the project file reqdoc.cue in the project root. An explicit
// file given with --config replaces both. Environment variables prefixed with
// REQDOC_ override individual settings (REQDOC_LOG_LEVEL=debug).
//
// Every file is validated against the embedded CUE schema (config_schema.cue)
// before it is merged; the merged result is validated again for rules CUE
// cannot express, such as duplicate form extensions.
package config
