package ops

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Move moves each source into destDir under its base name. A same-volume
// rename is tried first; if it fails the source is copied and then removed.
// When the copy succeeds but the removal fails, the error wraps
// ErrSourceNotRemoved and the copy stays in place.
func (e *Engine) Move(sources []string, destDir string) error {
	for _, src := range sources {
		dst := filepath.Join(destDir, filepath.Base(src))
		if err := e.moveOne(src, dst); err != nil {
			return e.record(OpMove, opErr(OpMove, src, err))
		}
		e.record(OpMove, nil)
	}
	return nil
}

func (e *Engine) moveOne(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	renameErr := e.rename(src, dst)
	if renameErr == nil {
		return nil
	}
	e.log.Debug("rename failed, copying instead",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.Error(renameErr))

	if info.Mode()&os.ModeSymlink != 0 {
		if err := copySymlink(src, dst); err != nil {
			return err
		}
	} else if err := e.copyPath(src, dst); err != nil {
		return err
	}

	if err := e.removeAll(src); err != nil {
		return fmt.Errorf("%w: %w", ErrSourceNotRemoved, err)
	}
	return nil
}

// copySymlink recreates the link at dst rather than copying its target.
func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return err
		}
	}
	return os.Symlink(target, dst)
}
