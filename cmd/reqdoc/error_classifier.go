// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/reqdoc/reqdoc/internal/issue"
	"github.com/reqdoc/reqdoc/internal/tree"
	"github.com/reqdoc/reqdoc/pkg/types"
)

// classifyError maps a command failure to its guidance page and exit code.
// An issue id carried by an ActionableError wins over the sentinel mapping.
func classifyError(err error) (issue.Id, types.ExitCode) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		id, _ := classifyError(exitErr.Err)
		return id, exitErr.Code
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.Issue != 0 {
		code := types.ExitFailure
		if errors.Is(err, tree.ErrPhysicalIO) {
			code = types.ExitIO
		}
		return ae.Issue, code
	}

	switch {
	case errors.Is(err, tree.ErrPhysicalIO):
		return issue.PhysicalIOFailedId, types.ExitIO
	case errors.Is(err, tree.ErrNotFound):
		return issue.NodeNotFoundId, types.ExitFailure
	case errors.Is(err, tree.ErrLinkTargetMissing):
		return issue.LinkTargetMissingId, types.ExitFailure
	case errors.Is(err, tree.ErrReadOnly):
		return issue.ReadOnlyIncludeId, types.ExitFailure
	case errors.Is(err, tree.ErrNameExists):
		return issue.NameExistsId, types.ExitFailure
	case errors.Is(err, tree.ErrInvalidName):
		return issue.InvalidNameId, types.ExitUsage
	case errors.Is(err, tree.ErrInvalidIndex):
		return issue.InvalidIndexId, types.ExitUsage
	case errors.Is(err, tree.ErrInvalidMove):
		return issue.InvalidMoveId, types.ExitUsage
	case errors.Is(err, tree.ErrBrokenContainer):
		return issue.BrokenContainerId, types.ExitFailure
	case errors.Is(err, types.ErrInvalidDescriptionText):
		return 0, types.ExitUsage
	case errors.Is(err, os.ErrPermission):
		return issue.PhysicalIOFailedId, types.ExitIO
	}
	return 0, types.ExitFailure
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their own Format; verbose mode shows the full chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderGuidance writes the issue page for err, if it has one, and returns
// the exit code.
func renderGuidance(stderr io.Writer, err error) types.ExitCode {
	id, code := classifyError(err)
	if id == 0 {
		return code
	}
	page := issue.Get(id)
	if page == nil {
		return code
	}
	rendered, renderErr := page.Render("dark")
	if renderErr != nil {
		log.Warn("render issue guidance", "issue", id, "err", renderErr)
		return code
	}
	fmt.Fprint(stderr, rendered)
	return code
}
