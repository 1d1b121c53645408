package ops

import "os"

// Delete removes each path, through the trash when useTrash is set and
// permanently otherwise. The two paths never mix within a call.
func (e *Engine) Delete(paths []string, useTrash bool) error {
	for _, p := range paths {
		if _, err := os.Lstat(p); err != nil {
			return e.record(OpDelete, opErr(OpDelete, p, err))
		}
		var err error
		if useTrash {
			err = e.trasher.MoveToTrash(p)
		} else {
			err = e.permanentDelete(p)
		}
		if err != nil {
			return e.record(OpDelete, opErr(OpDelete, p, err))
		}
		e.record(OpDelete, nil)
	}
	return nil
}

// CreateDirectory creates path and any missing parents. An existing
// directory is not an error; an existing file is.
func (e *Engine) CreateDirectory(path string) error {
	if err := os.MkdirAll(path, DirPermission); err != nil {
		return e.record(OpMkdir, opErr(OpMkdir, path, err))
	}
	return e.record(OpMkdir, nil)
}

// Rename renames oldPath to newPath with a single rename call. Whether an
// existing newPath is replaced depends on the platform: POSIX replaces files,
// Windows refuses.
func (e *Engine) Rename(oldPath, newPath string) error {
	if err := e.rename(oldPath, newPath); err != nil {
		return e.record(OpRename, opErr(OpRename, oldPath, err))
	}
	return e.record(OpRename, nil)
}
