// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// An ActionableError names the failed operation and resource and carries
// remediation suggestions. It may point at a guidance page (an Issue), a
// Markdown document rendered for the terminal with glamour when the command
// fails.
package issue
