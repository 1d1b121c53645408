//go:build !linux && !windows && !(darwin && cgo)

package icon

// NewPlatformProvider returns a provider that never finds an icon.
func NewPlatformProvider() NativeIconProvider {
	return unavailable{}
}
