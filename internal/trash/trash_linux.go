//go:build linux

package trash

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// Linux follows the freedesktop.org trash specification. Each trash root
// holds files/ with the trashed items and info/ with one .trashinfo per item:
//
//	[Trash Info]
//	Path=/original/path/to/file
//	DeletionDate=2024-01-15T10:30:45
//
// Items are moved to the home trash. When that is on another filesystem the
// per-volume $topdir/.Trash-$uid is used instead.

func homeTrash() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "Trash"), nil
}

func isAvailable() bool {
	root, err := homeTrash()
	if err != nil {
		return false
	}
	return ensureRoot(root) == nil
}

func displayName() string {
	return "Trash"
}

func moveToTrash(abs string) error {
	root, err := homeTrash()
	if err == nil {
		err = trashInto(root, abs)
		if err == nil || !errors.Is(err, unix.EXDEV) {
			return err
		}
	}

	top, terr := topDir(abs)
	if terr != nil {
		return err
	}
	return trashInto(filepath.Join(top, fmt.Sprintf(".Trash-%d", os.Getuid())), abs)
}

func ensureRoot(root string) error {
	if err := os.MkdirAll(filepath.Join(root, "files"), 0o700); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(root, "info"), 0o700)
}

// trashInto reserves a name by creating its .trashinfo exclusively, then
// renames abs into files/. The info file is removed if the rename fails.
func trashInto(root, abs string) error {
	if err := ensureRoot(root); err != nil {
		return err
	}
	files := filepath.Join(root, "files")
	infos := filepath.Join(root, "info")
	base := filepath.Base(abs)

	for n := 1; ; n++ {
		name := numbered(base, n)
		infoPath := filepath.Join(infos, name+".trashinfo")

		f, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return err
		}
		_, werr := fmt.Fprintf(f, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
			escapePath(abs), time.Now().Format("2006-01-02T15:04:05"))
		if cerr := f.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			os.Remove(infoPath)
			return werr
		}

		dest := filepath.Join(files, name)
		if _, err := os.Lstat(dest); err == nil {
			// Orphan without an info file; leave it alone.
			os.Remove(infoPath)
			continue
		}
		if err := os.Rename(abs, dest); err != nil {
			os.Remove(infoPath)
			return err
		}
		return nil
	}
}

// escapePath percent-encodes path for a .trashinfo file, keeping slashes.
func escapePath(path string) string {
	return (&url.URL{Path: path}).EscapedPath()
}
