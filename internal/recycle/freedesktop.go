//go:build !windows

package recycle

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"trash/internal/disk"
	"trash/internal/logging"
)

const (
	filesDir      = "files"
	infoDir       = "info"
	infoExt       = ".trashinfo"
	deletionDate  = "2006-01-02T15:04:05"
	maxNameTrials = 10000
	statTimeout   = 5 * time.Second
)

// Filesystem calls replaced in tests to simulate cross-device moves
var (
	rename    = os.Rename
	removeAll = os.RemoveAll
)

// errSourceKept reports a cross-device move whose copy landed in the trash
// while part of the source could not be removed
var errSourceKept = errors.New("copied to trash but source was not fully removed")

// DefaultTrashDir is the home trash of the freedesktop.org trash specification
func DefaultTrashDir() string {
	return filepath.Join(xdg.DataHome, "Trash")
}

// Default returns the platform trash
func Default() Trasher {
	return NewFreeDesktop(DefaultTrashDir())
}

// FreeDesktop implements Trasher with the freedesktop.org home trash
type FreeDesktop struct {
	Root   string
	now    func() time.Time
	logger zerolog.Logger
}

// NewFreeDesktop creates a trash rooted at root (files/ and info/ live below it)
func NewFreeDesktop(root string) *FreeDesktop {
	return &FreeDesktop{
		Root:   root,
		now:    time.Now,
		logger: logging.For("recycle"),
	}
}

// Trash moves every path into the trash, continuing past failures.
// The outcome carries the first failure's error number.
func (t *FreeDesktop) Trash(paths []string, opts Options) Outcome {
	if !opts.AllowUndo {
		t.logger.Error().Msg("Permanent deletion requested, refusing")
		return Outcome{Code: CodeUnsupported}
	}

	if err := t.ensureDirs(); err != nil {
		t.logger.Error().Err(err).Str("root", t.Root).Msg("Cannot prepare trash directory")
		return Outcome{Code: errorCode(err)}
	}

	var out Outcome
	failed := 0
	for _, p := range paths {
		dest, err := t.put(p)
		if err != nil {
			t.logger.Error().Err(err).Str("path", p).Msg("Failed to move to trash")
			if out.Code == CodeOK {
				out.Code = errorCode(err)
			}
			failed++
			continue
		}
		t.logger.Debug().Str("path", p).Str("trashed_as", dest).Msg("Moved to trash")
	}

	if failed > 0 && len(paths) > 1 {
		out.AnyAborted = true
	}
	return out
}

func (t *FreeDesktop) ensureDirs() error {
	for _, d := range []string{filesDir, infoDir} {
		if err := os.MkdirAll(filepath.Join(t.Root, d), 0o700); err != nil {
			return err
		}
	}
	return nil
}

// put trashes a single entry and returns its name inside files/
func (t *FreeDesktop) put(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.Clean(abs)

	if _, err := disk.LstatTimeout(abs, statTimeout); err != nil {
		if disk.IsStale(err) {
			t.logger.Warn().Str("path", abs).Msg("Entry sits on an unresponsive mount")
		}
		return "", err
	}
	if within(abs, t.Root) {
		return "", &os.PathError{Op: "trash", Path: abs, Err: syscall.EINVAL}
	}

	name, info, err := t.reserve(filepath.Base(abs))
	if err != nil {
		return "", err
	}

	if err := writeInfo(info, abs, t.now()); err != nil {
		os.Remove(info.Name())
		return "", err
	}

	dest := filepath.Join(t.Root, filesDir, name)
	if err := move(abs, dest); err != nil {
		if errors.Is(err, errSourceKept) {
			// The copy is complete, so its .trashinfo stays for restore.
			t.logger.Warn().Str("path", abs).Str("trashed_as", name).Msg("Source left behind after copy")
			return name, err
		}
		os.Remove(info.Name())
		return "", err
	}
	return name, nil
}

// reserve claims a unique name by creating its .trashinfo exclusively
func (t *FreeDesktop) reserve(base string) (string, *os.File, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// Dot files like ".bashrc" keep their whole name as the stem.
		stem, ext = base, ""
	}

	for i := 1; i <= maxNameTrials; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s (%d)%s", stem, i, ext)
		}
		if _, err := os.Lstat(filepath.Join(t.Root, filesDir, name)); err == nil {
			continue
		}

		infoPath := filepath.Join(t.Root, infoDir, name+infoExt)
		f, err := os.OpenFile(infoPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", nil, err
		}
		return name, f, nil
	}
	return "", nil, &os.PathError{Op: "trash", Path: base, Err: syscall.EEXIST}
}

func writeInfo(f *os.File, abs string, when time.Time) error {
	_, err := fmt.Fprintf(f, "[Trash Info]\nPath=%s\nDeletionDate=%s\n", escapePath(abs), when.Format(deletionDate))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// escapePath percent-encodes each segment, keeping the separators
func escapePath(abs string) string {
	segments := strings.Split(filepath.ToSlash(abs), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// move renames src to dest, copying across filesystems when it must
func move(src, dest string) error {
	err := rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err := checkSpace(src, filepath.Dir(dest)); err != nil {
		return err
	}
	if err := copyTree(src, dest); err != nil {
		removeAll(dest)
		return err
	}
	if err := removeAll(src); err != nil {
		return fmt.Errorf("%w: %w", errSourceKept, err)
	}
	return nil
}

// checkSpace fails with ENOSPC when src cannot fit into dir's filesystem.
// Platforms without a free space query skip the check.
func checkSpace(src, dir string) error {
	free, err := disk.FreeBytes(dir)
	if errors.Is(err, disk.ErrUnsupported) {
		return nil
	}
	if err != nil {
		return err
	}
	need, err := disk.TreeSize(src)
	if err != nil {
		return err
	}
	if need > free {
		return &os.PathError{Op: "trash", Path: src, Err: syscall.ENOSPC}
	}
	return nil
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		info, err := os.Lstat(path)
		if err != nil {
			return err
		}

		switch {
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.IsDir():
			return os.Mkdir(target, info.Mode().Perm()|0o700)
		default:
			return copyFile(path, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// within reports whether path is root or inside it
func within(path, root string) bool {
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(os.PathSeparator))
}
