//go:build windows && (amd64 || arm64)

package recycle

import (
	"path/filepath"
	"unsafe"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows"

	"trash/internal/logging"
)

var (
	shell32              = windows.NewLazySystemDLL("shell32.dll")
	procSHFileOperationW = shell32.NewProc("SHFileOperationW")
)

// Shell file operation constants from shellapi.h
const (
	foDelete          = 0x0003
	fofSilent         = 0x0004
	fofNoConfirmation = 0x0010
	fofAllowUndo      = 0x0040
	fofNoErrorUI      = 0x0400
)

// shFileOpStruct is SHFILEOPSTRUCTW with 64-bit packing
type shFileOpStruct struct {
	hwnd                  windows.HWND
	wFunc                 uint32
	pFrom                 *uint16
	pTo                   *uint16
	fFlags                uint16
	fAnyOperationsAborted int32
	hNameMappings         uintptr
	lpszProgressTitle     *uint16
}

// Default returns the platform trash
func Default() Trasher {
	return NewShell()
}

// Shell implements Trasher with the Windows Recycle Bin
type Shell struct {
	logger zerolog.Logger
}

func NewShell() *Shell {
	return &Shell{logger: logging.For("recycle")}
}

// Trash hands every path to a single SHFileOperationW call
func (s *Shell) Trash(paths []string, opts Options) Outcome {
	if !opts.AllowUndo {
		s.logger.Error().Msg("Permanent deletion requested, refusing")
		return Outcome{Code: CodeUnsupported}
	}

	from, err := multiString(paths)
	if err != nil {
		s.logger.Error().Err(err).Msg("Cannot encode path list")
		return Outcome{Code: int(windows.ERROR_INVALID_PARAMETER)}
	}

	flags := uint16(fofAllowUndo | fofSilent | fofNoErrorUI)
	if opts.NoConfirmation {
		flags |= fofNoConfirmation
	}

	op := shFileOpStruct{
		wFunc:  foDelete,
		pFrom:  &from[0],
		fFlags: flags,
	}
	r, _, _ := procSHFileOperationW.Call(uintptr(unsafe.Pointer(&op)))

	out := Outcome{Code: int(int32(r)), AnyAborted: op.fAnyOperationsAborted != 0}
	s.logger.Debug().Int("count", len(paths)).Int("code", out.Code).Bool("aborted", out.AnyAborted).Msg("SHFileOperationW returned")
	return out
}

// multiString builds the double NUL terminated UTF-16 list SHFileOperationW expects
func multiString(paths []string) ([]uint16, error) {
	var buf []uint16
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, err
		}
		u, err := windows.UTF16FromString(abs)
		if err != nil {
			return nil, err
		}
		buf = append(buf, u...) // includes the terminating NUL
	}
	return append(buf, 0), nil
}
