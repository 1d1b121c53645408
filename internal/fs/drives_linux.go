//go:build linux

package fs

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Pseudo filesystems never offered as drives.
var virtualFSTypes = map[string]bool{
	"tmpfs":    true,
	"devtmpfs": true,
	"cgroup":   true,
	"cgroup2":  true,
	"overlay":  true,
	"squashfs": true,
}

var virtualMountRoots = []string{"/sys", "/proc", "/dev", "/run", "/snap", "/boot"}

// ListDrives returns the root filesystem followed by the real mounts from
// /proc/mounts.
func ListDrives() []Drive {
	f, err := os.Open("/proc/mounts")
	if err != nil {
		return []Drive{rootDrive}
	}
	defer f.Close()
	return parseMounts(f)
}

var rootDrive = Drive{Name: "/ (Root)", Path: "/"}

func parseMounts(r io.Reader) []Drive {
	drives := []Drive{rootDrive}
	seen := map[string]bool{"/": true}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mount, fsType := unescapeMount(fields[1]), fields[2]
		if seen[mount] || virtualFSTypes[fsType] || underVirtualRoot(mount) {
			continue
		}
		seen[mount] = true
		drives = append(drives, Drive{Name: mountName(mount), Path: mount})
	}
	return drives
}

func underVirtualRoot(mount string) bool {
	for _, root := range virtualMountRoots {
		if mount == root || strings.HasPrefix(mount, root+"/") {
			return true
		}
	}
	return false
}

func mountName(mount string) string {
	switch {
	case mount == "/home":
		return "Home"
	case strings.HasPrefix(mount, "/media/"), strings.HasPrefix(mount, "/mnt/"):
		return filepath.Base(mount)
	}
	return mount
}

// unescapeMount decodes the octal escapes (\040 for space) used in
// /proc/mounts.
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			b.WriteByte((s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }
