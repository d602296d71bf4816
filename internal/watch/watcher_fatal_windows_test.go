// SPDX-License-Identifier: MPL-2.0

//go:build windows

package watch

import (
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestIsFatalFsnotifyError_Windows(t *testing.T) {
	t.Parallel()

	fatal := []error{
		errnoTooManyOpenFiles,
		errnoInvalidHandle,
		errnoNotEnoughMemory,
		fmt.Errorf("ReadDirectoryChanges: %w", errnoInvalidHandle),
	}
	for _, err := range fatal {
		if !isFatalFsnotifyError(err) {
			t.Errorf("isFatalFsnotifyError(%v) = false, want true", err)
		}
	}

	transient := []error{syscall.Errno(5), syscall.Errno(2), errors.New("queue overflow")}
	for _, err := range transient {
		if isFatalFsnotifyError(err) {
			t.Errorf("isFatalFsnotifyError(%v) = true, want false", err)
		}
	}
}
