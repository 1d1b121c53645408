//go:build !linux && !darwin && !windows

package fs

func ListDrives() []Drive {
	return []Drive{{Name: "/", Path: "/"}}
}
