// Package expand turns user supplied patterns into the concrete entries to trash.
package expand

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"trash/internal/logging"
)

// Wildcards recognised in a pattern's final component
const Wildcards = "*?"

// Expander expands patterns against a filesystem
type Expander struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// New creates an Expander over fs; a nil fs means the OS filesystem
func New(fs afero.Fs) *Expander {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Expander{
		fs:     fs,
		logger: logging.For("expand"),
	}
}

// HasWildcard reports whether pattern contains '*' or '?'
func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, Wildcards)
}

// Expand returns the entries named by pattern.
// A literal pattern is returned unchanged whether or not it exists.
// A wildcard pattern yields the matching entries of its directory,
// prefixed with the directory exactly as the user typed it, or nothing.
func (e *Expander) Expand(pattern string) []string {
	if !HasWildcard(pattern) {
		return []string{pattern}
	}

	prefix, base := splitPattern(pattern)
	if HasWildcard(prefix) {
		// Only the final component may contain wildcards.
		e.logger.Debug().Str("pattern", pattern).Msg("Wildcard in directory part matches nothing")
		return nil
	}

	dir := prefix
	if dir == "" {
		dir = "."
	}

	entries, err := afero.ReadDir(e.fs, dir)
	if err != nil {
		e.logger.Debug().Err(err).Str("pattern", pattern).Str("dir", dir).Msg("Cannot enumerate directory")
		return nil
	}

	var result []string
	for _, entry := range entries {
		name := entry.Name()
		if name == "." || name == ".." {
			continue
		}
		if !Match(base, name) {
			continue
		}
		result = append(result, prefix+name)
	}

	e.logger.Debug().Str("pattern", pattern).Int("matches", len(result)).Msg("Expanded pattern")
	return result
}

// ExpandAll expands every pattern and concatenates the results in argument order.
// Entries matched by more than one pattern appear once per match.
func (e *Expander) ExpandAll(patterns []string) []string {
	var items []string
	for _, p := range patterns {
		items = append(items, e.Expand(p)...)
	}
	return items
}

// splitPattern splits at the last '/' or '\', keeping the separator on the prefix
func splitPattern(pattern string) (prefix, base string) {
	i := strings.LastIndexAny(pattern, `/\`)
	if i < 0 {
		return "", pattern
	}
	return pattern[:i+1], pattern[i+1:]
}

// Match reports whether name matches pattern, where '*' matches any run of
// characters and '?' matches exactly one. Every other character is literal.
// Names compare case-insensitively on Windows.
func Match(pattern, name string) bool {
	return matchName(pattern, name, runtime.GOOS == "windows")
}

func matchName(pattern, name string, fold bool) bool {
	if fold {
		pattern, name = strings.ToLower(pattern), strings.ToLower(name)
	}
	ok, err := filepath.Match(escapeClasses(pattern), name)
	return err == nil && ok
}

// escapeClasses neutralises filepath.Match syntax beyond '*' and '?' so that
// characters such as '[' in file names are compared literally
func escapeClasses(pattern string) string {
	if !strings.ContainsAny(pattern, `[\`) {
		return pattern
	}
	var b strings.Builder
	for _, r := range pattern {
		switch {
		case r == '[':
			b.WriteString("[[]")
		case r == '\\' && runtime.GOOS != "windows":
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
