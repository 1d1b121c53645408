// Package trash moves files and directories to the platform's trash or
// recycle bin, and deletes them permanently when asked to.
package trash

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnavailable is returned on platforms without a trash facility.
var ErrUnavailable = errors.New("trash is not available on this platform")

// MoveToTrash moves path to the trash. Symlinks are trashed as links.
func MoveToTrash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return err
	}
	if err := moveToTrash(abs); err != nil {
		return fmt.Errorf("move to %s: %w", displayName(), err)
	}
	return nil
}

// IsAvailable reports whether MoveToTrash can work on this platform.
func IsAvailable() bool {
	return isAvailable()
}

// DisplayName is "Recycle Bin" on Windows and "Trash" elsewhere.
func DisplayName() string {
	return displayName()
}

// PermanentDelete removes path without going through the trash. Directories
// are removed recursively; a symlink is removed, never its target.
func PermanentDelete(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// numbered returns base for n <= 1 and "stem.n.ext" otherwise.
func numbered(base string, n int) string {
	if n <= 1 {
		return base
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}
	return fmt.Sprintf("%s.%d%s", stem, n, ext)
}
