//go:build linux

package icon

import (
	"fmt"
	"image"
	_ "image/png"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/justyntemme/razord/internal/safe"
)

// Themes searched in order. Only PNG icons are used.
var defaultThemes = []string{"hicolor", "Adwaita", "gnome", "breeze"}

var fixedSizes = []int{256, 128, 96, 64, 48, 32, 24, 16}

// ThemeProvider looks icons up in freedesktop icon themes by MIME type.
type ThemeProvider struct {
	dataDirs []string
	themes   []string
}

func NewPlatformProvider() NativeIconProvider {
	return NewThemeProvider(xdgDataDirs())
}

// NewThemeProvider searches <dir>/icons/<theme> and <dir>/pixmaps for each
// of dataDirs.
func NewThemeProvider(dataDirs []string) *ThemeProvider {
	return &ThemeProvider{dataDirs: dataDirs, themes: defaultThemes}
}

func xdgDataDirs() []string {
	var dirs []string
	if home := os.Getenv("XDG_DATA_HOME"); home != "" {
		dirs = append(dirs, home)
	} else if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local", "share"))
	}
	system := os.Getenv("XDG_DATA_DIRS")
	if system == "" {
		system = "/usr/local/share:/usr/share"
	}
	for _, d := range filepath.SplitList(system) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func (p *ThemeProvider) Icon(path string, size int) ([]byte, error) {
	file := p.find(iconNames(path), size)
	if file == "" {
		return nil, safe.ErrUnavailable
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", file, err)
	}
	return encodeFit(img, size)
}

// iconNames lists freedesktop icon names for path, most specific first.
func iconNames(path string) []string {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return []string{"folder", "inode-directory"}
	}

	var types []string
	if err == nil {
		if m, err := mimetype.DetectFile(path); err == nil {
			for cur := m; cur != nil; cur = cur.Parent() {
				types = append(types, cur.String())
			}
		}
	}
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		types = append([]string{t}, types...)
	}

	var names []string
	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	for _, t := range types {
		t, _, _ = strings.Cut(t, ";")
		t = strings.TrimSpace(t)
		media, _, ok := strings.Cut(t, "/")
		if !ok {
			continue
		}
		add(strings.ReplaceAll(t, "/", "-"))
		add(media + "-x-generic")
	}
	add("text-x-generic")
	add("unknown")
	return names
}

// candidateSizes returns size first, then the fixed theme sizes.
func candidateSizes(size int) []int {
	out := []int{size}
	for _, s := range fixedSizes {
		if s != size {
			out = append(out, s)
		}
	}
	return out
}

func (p *ThemeProvider) find(names []string, size int) string {
	sizes := candidateSizes(size)
	for _, name := range names {
		for _, dir := range p.dataDirs {
			for _, theme := range p.themes {
				for _, s := range sizes {
					for _, ctx := range []string{"mimetypes", "places"} {
						candidate := filepath.Join(dir, "icons", theme, fmt.Sprintf("%dx%d", s, s), ctx, name+".png")
						if fileExists(candidate) {
							return candidate
						}
					}
				}
			}
			if candidate := filepath.Join(dir, "pixmaps", name+".png"); fileExists(candidate) {
				return candidate
			}
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
