// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output, tuned for dark terminals.
const (
	// ColorPrimary is purple, used for titles and container names.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray, used for kinds, paths and de-emphasized text.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green, used for completed operations.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red, used for errors and broken overlays.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber, used for disabled and read-only markers.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue, used for numbers and commands.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for headers and container names.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary text.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for confirmation marks.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error labels.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for markers that need attention.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for command names and config keys.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	numberStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHighlight)

	brokenStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Strikethrough(true)
)
