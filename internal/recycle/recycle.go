// Package recycle moves filesystem entries to the platform's recycle bin.
package recycle

import (
	"errors"
	"syscall"
)

// Result codes that are not OS error numbers
const (
	CodeOK          = 0
	CodeGeneric     = 1    // Failure without an OS error number
	CodeUnsupported = 0x78 // Requested mode is not available (matches ERROR_CALL_NOT_IMPLEMENTED)
)

// Options mirror the flags of a shell file operation
type Options struct {
	AllowUndo      bool // Entries must stay recoverable
	NoConfirmation bool // Never show the platform's own confirmation UI
}

// Outcome is the aggregate result of one Trash call.
// Individual entries are not reported.
type Outcome struct {
	Code       int  // 0 on success, else the first failure's error number
	AnyAborted bool // Some entries were not trashed while the call went on with the rest
}

// Succeeded reports a clean run
func (o Outcome) Succeeded() bool {
	return o.Code == CodeOK && !o.AnyAborted
}

// Trasher abstracts the soft-delete primitive
// Enables fakes in tests so no real entry is moved
type Trasher interface {
	Trash(paths []string, opts Options) Outcome
}

// errorCode extracts an OS error number from err
func errorCode(err error) int {
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return int(errno)
	}
	return CodeGeneric
}
