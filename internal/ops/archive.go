package ops

import (
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

// Archive writes sources into a new zip file at dest and returns dest.
// Files are deflated; each directory is stored as a "name/" entry ahead of
// its children, which follow in lexical order. Entry names are relative to
// each source's parent, so a source "/a/Assets" yields "Assets/...". A
// partially written archive is removed on failure.
func (e *Engine) Archive(sources []string, dest string) (string, error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return "", e.record(OpArchive, opErr(OpArchive, dest, err))
	}

	f, err := os.Create(absDest)
	if err != nil {
		return "", e.record(OpArchive, opErr(OpArchive, dest, err))
	}
	zw := zip.NewWriter(f)

	done := false
	defer func() {
		if !done {
			zw.Close()
			f.Close()
			os.Remove(absDest)
		}
	}()

	a := &archiver{zw: zw, skip: absDest, visiting: make(map[string]bool)}
	for _, src := range sources {
		if err := a.add(src); err != nil {
			return "", e.record(OpArchive, opErr(OpArchive, src, err))
		}
	}

	if err := zw.Close(); err != nil {
		return "", e.record(OpArchive, opErr(OpArchive, dest, err))
	}
	if err := f.Close(); err != nil {
		return "", e.record(OpArchive, opErr(OpArchive, dest, err))
	}
	done = true

	e.log.Debug("archive written", zap.String("dest", dest), zap.Int("sources", len(sources)))
	return dest, e.record(OpArchive, nil)
}

type archiver struct {
	zw   *zip.Writer
	skip string
	// Real paths of the directories on the current walk path, for
	// breaking symlink cycles.
	visiting map[string]bool
}

func (a *archiver) add(src string) error {
	abs, err := filepath.Abs(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	name := filepath.Base(abs)
	if info.IsDir() {
		return a.addDir(abs, name, info)
	}
	return a.addFile(abs, name, info)
}

func (a *archiver) addDir(dir, prefix string, info os.FileInfo) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if a.visiting[resolved] {
		return nil
	}
	a.visiting[resolved] = true
	defer delete(a.visiting, resolved)

	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = prefix + "/"
	hdr.Method = zip.Store
	if _, err := a.zw.CreateHeader(hdr); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if full == a.skip {
			continue
		}
		child, err := os.Stat(full)
		if err != nil {
			return &OpError{Op: OpArchive, Path: full, Err: err}
		}
		name := prefix + "/" + entry.Name()
		if child.IsDir() {
			err = a.addDir(full, name, child)
		} else {
			err = a.addFile(full, name, child)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *archiver) addFile(path, name string, info os.FileInfo) error {
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := a.zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return &OpError{Op: OpArchive, Path: path, Err: err}
	}
	defer src.Close()
	if _, err := io.Copy(w, src); err != nil {
		return &OpError{Op: OpArchive, Path: path, Err: err}
	}
	return nil
}
