//go:build windows

package fs

import (
	"golang.org/x/sys/windows"
)

// ListDrives returns every lettered volume with a root directory. Volume
// labels are read with GetVolumeInformation, which can block on
// disconnected network shares.
func ListDrives() []Drive {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return nil
	}

	var drives []Drive
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := string(rune('A' + i))
		root := letter + `:\`
		rootPtr, err := windows.UTF16PtrFromString(root)
		if err != nil {
			continue
		}

		kind := windows.GetDriveType(rootPtr)
		if kind == windows.DRIVE_UNKNOWN || kind == windows.DRIVE_NO_ROOT_DIR {
			continue
		}
		drives = append(drives, Drive{Name: driveName(letter, volumeLabel(rootPtr), kind), Path: root})
	}
	return drives
}

func volumeLabel(root *uint16) string {
	buf := make([]uint16, windows.MAX_PATH+1)
	if err := windows.GetVolumeInformation(root, &buf[0], uint32(len(buf)), nil, nil, nil, nil, 0); err != nil {
		return ""
	}
	return windows.UTF16ToString(buf)
}

func driveName(letter, label string, kind uint32) string {
	if label != "" {
		return label + " (" + letter + ":)"
	}
	switch kind {
	case windows.DRIVE_REMOVABLE:
		return "Removable (" + letter + ":)"
	case windows.DRIVE_CDROM:
		return "CD/DVD (" + letter + ":)"
	case windows.DRIVE_REMOTE:
		return "Network (" + letter + ":)"
	}
	return letter + ":"
}
