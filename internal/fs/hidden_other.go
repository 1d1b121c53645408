//go:build !windows

package fs

// Dot-names already cover hidden files outside Windows.
func hasHiddenAttribute(string) bool { return false }
