//go:build darwin

package trash

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// macOS keeps the user's trash in ~/.Trash with no metadata files. Items on
// other volumes go to <volume>/.Trashes/<uid>, which Finder shows as part of
// the same Trash.

func homeTrash() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".Trash"), nil
}

func isAvailable() bool {
	root, err := homeTrash()
	if err != nil {
		return false
	}
	info, err := os.Stat(root)
	return err == nil && info.IsDir()
}

func displayName() string {
	return "Trash"
}

func moveToTrash(abs string) error {
	root, err := homeTrash()
	if err == nil {
		err = renameUnique(root, abs)
		if err == nil || !errors.Is(err, unix.EXDEV) {
			return err
		}
	}

	top, terr := topDir(abs)
	if terr != nil {
		return err
	}
	return renameUnique(filepath.Join(top, ".Trashes", strconv.Itoa(os.Getuid())), abs)
}

func renameUnique(dir, abs string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	base := filepath.Base(abs)
	for n := 1; ; n++ {
		dest := filepath.Join(dir, numbered(base, n))
		if _, err := os.Lstat(dest); err == nil {
			continue
		}
		return os.Rename(abs, dest)
	}
}
