//go:build linux || darwin || freebsd

package disk

import "golang.org/x/sys/unix"

// FreeBytes returns the space available to unprivileged users on path's filesystem
func FreeBytes(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return int64(stat.Bavail) * int64(stat.Bsize), nil
}
