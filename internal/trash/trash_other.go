//go:build !linux && !darwin && !windows

package trash

func isAvailable() bool { return false }

func displayName() string { return "Trash" }

func moveToTrash(string) error { return ErrUnavailable }
