//go:build !(linux || darwin || freebsd)

package disk

// FreeBytes is not available here; callers skip their space check
func FreeBytes(string) (int64, error) {
	return 0, ErrUnsupported
}
