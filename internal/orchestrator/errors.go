package orchestrator

import (
	"errors"
	"fmt"
)

var (
	ErrUsage          = errors.New("no file or directory given")
	ErrNoMatch        = errors.New("no matching files or directories found")
	ErrDeclined       = errors.New("operation cancelled")
	ErrProtectedPath  = errors.New("refusing to trash protected path")
	ErrDeletionFailed = errors.New("operation failed")
)

// DeletionFailure is the outcome of a soft-delete call that did not fully succeed
type DeletionFailure struct {
	Code    int
	Aborted bool
}

func (e *DeletionFailure) Error() string {
	if e.Aborted {
		return fmt.Sprintf("Operation failed: some operations were aborted (error code: %d)", e.Code)
	}
	return fmt.Sprintf("Operation failed (error code: %d)", e.Code)
}

// Is lets errors.Is(err, ErrDeletionFailed) match any DeletionFailure
func (e *DeletionFailure) Is(target error) bool {
	return target == ErrDeletionFailed
}
