// Package fs enumerates directories, mounted volumes and directory changes
// on the local disk.
package fs

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/justyntemme/razord/internal/filetype"
)

// Entry is one child of a listed directory.
type Entry struct {
	Name     string       `json:"name"`
	Path     string       `json:"path"`
	IsDir    bool         `json:"is_directory"`
	Size     int64        `json:"size"`
	Modified int64        `json:"modified"` // ms since the Unix epoch
	Type     filetype.Tag `json:"file_type"`
}

var ErrNotDirectory = errors.New("not a directory")

// Names hidden from listings regardless of platform, compared lowercased.
var noiseNames = map[string]bool{
	"desktop.ini": true,
	"thumbs.db":   true,
	"ntuser.dat":  true,
}

// Hidden reports whether a child called name is filtered out of listings.
// Platform attributes are checked separately.
func Hidden(name string) bool {
	return strings.HasPrefix(name, ".") || noiseNames[strings.ToLower(name)]
}

type Lister struct {
	log *zap.Logger
}

func NewLister(log *zap.Logger) *Lister {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lister{log: log}
}

// List returns the visible children of dir, sorted by name. Symlinks are
// followed for metadata; a dangling link is reported with its own metadata.
// Children whose metadata cannot be read are dropped.
func (l *Lister) List(dir string) ([]Entry, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	if err := checkReadableDir(root); err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	entries := []Entry{}
	var mu sync.Mutex

	conf := &fastwalk.Config{Follow: true}
	err = fastwalk.Walk(conf, root, func(fullPath string, d iofs.DirEntry, err error) error {
		if err != nil {
			if fullPath == root {
				return err
			}
			l.log.Debug("skipping entry", zap.String("path", fullPath), zap.Error(err))
			return nil
		}
		if fullPath == root {
			return nil
		}
		skip := func() error {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if filepath.Dir(fullPath) != root {
			return skip()
		}

		name := d.Name()
		if Hidden(name) || hasHiddenAttribute(fullPath) {
			return skip()
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			info, err = os.Lstat(fullPath)
			if err != nil {
				l.log.Debug("skipping unreadable entry", zap.String("path", fullPath), zap.Error(err))
				return skip()
			}
		}

		e := Entry{
			Name:     name,
			Path:     fullPath,
			IsDir:    info.IsDir(),
			Modified: info.ModTime().UnixMilli(),
			Type:     filetype.ClassifyEntry(name, info.IsDir()),
		}
		if !e.IsDir {
			e.Size = info.Size()
		}

		mu.Lock()
		entries = append(entries, e)
		mu.Unlock()
		return skip()
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	l.log.Debug("listed directory", zap.String("path", root), zap.Int("entries", len(entries)))
	return entries, nil
}

func checkReadableDir(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return ErrNotDirectory
	}
	return nil
}

// IsDirectory reports whether path exists and is a directory, following
// symlinks.
func IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
