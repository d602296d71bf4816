// SPDX-License-Identifier: MPL-2.0

// Package numbering assigns item numbers to tables, images and form
// documents.
//
// Every pass recomputes all numbers from scratch. The document tree is
// walked depth-first in document order; each appendix starts an independent
// pass with fresh counters whose numbers are prefixed with the appendix
// number. Disabled units receive "X" and do not advance their counter.
package numbering
