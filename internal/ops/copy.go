package ops

import (
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Copy copies each source into destDir under its base name. Existing files
// are overwritten and existing directories merged.
func (e *Engine) Copy(sources []string, destDir string) error {
	for _, src := range sources {
		dst := filepath.Join(destDir, filepath.Base(src))
		if err := e.copyPath(src, dst); err != nil {
			return e.record(OpCopy, opErr(OpCopy, src, err))
		}
		e.record(OpCopy, nil)
	}
	return nil
}

// copyPath copies a file or directory tree from src to dst.
func (e *Engine) copyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := checkCopyTarget(src, dst, info.IsDir()); err != nil {
		return err
	}
	if info.IsDir() {
		return e.copyDir(src, dst)
	}
	return copyFile(src, dst)
}

func checkCopyTarget(src, dst string, isDir bool) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return err
	}
	if absSrc == absDst {
		return ErrSameFile
	}
	if isDir && strings.HasPrefix(absDst, absSrc+string(filepath.Separator)) {
		return ErrCopyIntoSelf
	}
	return nil
}

type copyItem struct {
	srcPath string
	dstPath string
	isDir   bool
	mode    iofs.FileMode
}

// copyDir collects the tree with fastwalk, creates every directory
// shallowest first, then copies the files. Directory modes are applied last
// so read-only directories can still be filled.
func (e *Engine) copyDir(src, dst string) error {
	var (
		items     []copyItem
		itemsMu   sync.Mutex
		totalSize atomic.Int64
	)

	conf := &fastwalk.Config{Follow: true}
	walkErr := fastwalk.Walk(conf, src, func(fullPath string, d iofs.DirEntry, err error) error {
		if err != nil {
			return &OpError{Op: OpCopy, Path: fullPath, Err: err}
		}
		rel, err := filepath.Rel(src, fullPath)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			return &OpError{Op: OpCopy, Path: fullPath, Err: err}
		}

		item := copyItem{
			srcPath: fullPath,
			dstPath: filepath.Join(dst, rel),
			isDir:   info.IsDir(),
			mode:    info.Mode(),
		}
		if !item.isDir {
			totalSize.Add(info.Size())
		}
		itemsMu.Lock()
		items = append(items, item)
		itemsMu.Unlock()
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	rootInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, DirPermission); err != nil {
		return err
	}

	// Directories before files, parents before children.
	sort.Slice(items, func(i, j int) bool {
		if items[i].isDir != items[j].isDir {
			return items[i].isDir
		}
		return len(items[i].dstPath) < len(items[j].dstPath)
	})

	var dirs []copyItem
	for _, item := range items {
		if item.isDir {
			if err := os.MkdirAll(item.dstPath, DirPermission); err != nil {
				return &OpError{Op: OpCopy, Path: item.dstPath, Err: err}
			}
			dirs = append(dirs, item)
			continue
		}
		if err := copyFile(item.srcPath, item.dstPath); err != nil {
			return &OpError{Op: OpCopy, Path: item.srcPath, Err: err}
		}
	}

	for i := len(dirs) - 1; i >= 0; i-- {
		e.chmod(dirs[i].dstPath, dirs[i].mode.Perm())
	}
	e.chmod(dst, rootInfo.Mode().Perm())

	e.log.Debug("copied directory",
		zap.String("src", src),
		zap.String("dst", dst),
		zap.Int("entries", len(items)),
		zap.String("size", humanize.Bytes(uint64(totalSize.Load()))))
	return nil
}

// chmod applies a directory mode after the copy. Failures leave the
// default permission in place and are only logged.
func (e *Engine) chmod(path string, mode iofs.FileMode) {
	if err := os.Chmod(path, mode); err != nil {
		e.log.Debug("chmod failed", zap.String("path", path), zap.Error(err))
	}
}

// copyFile copies one file, preserving its permission bits.
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FilePermission)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	return os.Chmod(dst, info.Mode().Perm())
}
