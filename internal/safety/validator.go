package safety

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	ErrInvalidPath   = errors.New("invalid path")
	ErrProtectedPath = errors.New("protected path")
)

// Validator guards every trash request against system-critical targets
type Validator struct {
	// Exact: the path itself is protected, entries below it are not (e.g. $HOME)
	Exact []string
	// Trees: the path and everything below it are protected (e.g. /etc, the trash)
	Trees []string
}

// NewValidator creates a validator with the base protected set plus extras.
// extraTrees are protected together with everything below them.
func NewValidator(extraTrees ...string) *Validator {
	return &Validator{
		Exact: normalizeRoots(defaultExact()),
		Trees: normalizeRoots(append(defaultTrees(), extraTrees...)),
	}
}

// ValidateTrashTarget is the single-source-of-truth for trash authorization
// Existence is not checked here
func (v *Validator) ValidateTrashTarget(path string) error {
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	if isRoot(p) {
		return ErrProtectedPath
	}
	for _, e := range v.Exact {
		if p == e {
			return ErrProtectedPath
		}
	}
	if IsProtectedPath(p, v.Trees) {
		return ErrProtectedPath
	}
	return nil
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// IsProtectedPath checks if path is one of the protected trees or inside one
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	if isRoot(p) {
		return true
	}

	for _, prot := range protected {
		if hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

// isRoot matches "/" and volume roots such as `C:\`
func isRoot(p string) bool {
	return p == filepath.VolumeName(p)+string(os.PathSeparator)
}

// hasPathPrefix checks if path equals prefix or lies below it
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if isRoot(prefix) {
		return path == prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

// normalizeRoots converts slice of roots to absolute, cleaned paths
func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}

// defaultExact protects the home directory itself but not what it contains
func defaultExact() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{home}
}

// defaultTrees returns the base set of protected system trees
func defaultTrees() []string {
	if runtime.GOOS == "windows" {
		windir := os.Getenv("SystemRoot")
		if windir == "" {
			windir = `C:\Windows`
		}
		return []string{
			windir,
			os.Getenv("ProgramFiles"),
			os.Getenv("ProgramFiles(x86)"),
		}
	}
	return []string{
		"/etc",
		"/bin",
		"/usr",
		"/boot",
		"/lib",
		"/lib64",
		"/sbin",
		"/proc",
		"/sys",
		"/dev",
	}
}
