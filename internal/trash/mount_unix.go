//go:build linux || darwin

package trash

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// topDir returns the mount point of the filesystem holding path: the highest
// ancestor that still shares path's device.
func topDir(path string) (string, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return "", err
	}
	dev := st.Dev

	dir := filepath.Dir(path)
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir, nil
		}
		var pst unix.Stat_t
		if err := unix.Stat(parent, &pst); err != nil || pst.Dev != dev {
			return dir, nil
		}
		dir = parent
	}
}
