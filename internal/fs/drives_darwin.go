//go:build darwin

package fs

import (
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
)

const volumesDir = "/Volumes"

// ListDrives returns the entries of /Volumes, with the boot volume (the
// symlink to /) first.
func ListDrives() []Drive {
	var (
		boot   []Drive
		drives []Drive
		mu     sync.Mutex
	)

	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, volumesDir, func(fullPath string, d iofs.DirEntry, err error) error {
		if err != nil || fullPath == volumesDir {
			return nil
		}
		if filepath.Dir(fullPath) != volumesDir {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		name := d.Name()
		if target, err := os.Readlink(fullPath); err == nil && target == "/" {
			mu.Lock()
			boot = append(boot, Drive{Name: name, Path: "/"})
			mu.Unlock()
			return nil
		}
		if info, err := os.Stat(fullPath); err != nil || !info.IsDir() {
			return nil
		}

		mu.Lock()
		drives = append(drives, Drive{Name: name, Path: fullPath})
		mu.Unlock()
		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})
	if err != nil || len(boot)+len(drives) == 0 {
		return []Drive{{Name: "Macintosh HD", Path: "/"}}
	}

	sort.Slice(drives, func(i, j int) bool { return drives[i].Name < drives[j].Name })
	return append(boot, drives...)
}
