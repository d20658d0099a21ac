// Package disk answers the filesystem questions the trash asks before
// moving an entry: is the mount alive, and does a copy fit.
package disk

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrUnsupported is returned where free space cannot be queried
var ErrUnsupported = errors.New("free space query not supported on this platform")

// LstatTimeout is os.Lstat bounded by timeout.
// A hung stat, typical of a stale network mount, reports ESTALE.
func LstatTimeout(path string, timeout time.Duration) (fs.FileInfo, error) {
	type result struct {
		info fs.FileInfo
		err  error
	}
	done := make(chan result, 1)

	go func() {
		info, err := os.Lstat(path)
		done <- result{info, err}
	}()

	select {
	case r := <-done:
		return r.info, r.err
	case <-time.After(timeout):
		return nil, &os.PathError{Op: "lstat", Path: path, Err: syscall.ESTALE}
	}
}

// IsStale reports whether err is one of the errors of a dead network mount
func IsStale(err error) bool {
	return errors.Is(err, syscall.ESTALE) ||
		errors.Is(err, syscall.EIO) ||
		errors.Is(err, syscall.ENXIO) ||
		os.IsTimeout(err)
}

// TreeSize sums the sizes of the regular files below path, path included.
// Symlinks are counted by their own size and never followed.
func TreeSize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() || d.Type()&fs.ModeSymlink != 0 {
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}
