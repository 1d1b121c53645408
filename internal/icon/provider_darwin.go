//go:build darwin && cgo

package icon

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AppKit -framework Foundation
#import <AppKit/AppKit.h>
#include <stdlib.h>
#include <string.h>

// razord_icon_png returns malloc'd PNG bytes of the Finder icon for path, or
// NULL. The caller frees the buffer.
static void *razord_icon_png(const char *path, int size, int *out_len) {
	@autoreleasepool {
		NSString *p = [NSString stringWithUTF8String:path];
		if (p == nil) return NULL;
		NSImage *icon = [[NSWorkspace sharedWorkspace] iconForFile:p];
		if (icon == nil) return NULL;
		[icon setSize:NSMakeSize(size, size)];

		NSData *tiff = [icon TIFFRepresentation];
		if (tiff == nil) return NULL;
		NSBitmapImageRep *rep = [NSBitmapImageRep imageRepWithData:tiff];
		if (rep == nil) return NULL;
		NSData *png = [rep representationUsingType:NSBitmapImageFileTypePNG properties:@{}];
		if (png == nil || [png length] == 0) return NULL;

		void *buf = malloc([png length]);
		if (buf == NULL) return NULL;
		memcpy(buf, [png bytes], [png length]);
		*out_len = (int)[png length];
		return buf;
	}
}
*/
import "C"

import (
	"bytes"
	"image"
	_ "image/png"
	"unsafe"

	"github.com/justyntemme/razord/internal/safe"
)

// WorkspaceProvider asks NSWorkspace for the Finder icon of a path.
type WorkspaceProvider struct{}

func NewPlatformProvider() NativeIconProvider {
	return WorkspaceProvider{}
}

func (WorkspaceProvider) Icon(path string, size int) ([]byte, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var n C.int
	buf := C.razord_icon_png(cpath, C.int(size), &n)
	if buf == nil || n <= 0 {
		return nil, safe.ErrUnavailable
	}
	defer C.free(buf)
	data := C.GoBytes(buf, n)

	// The TIFF representation may carry a larger rep than requested.
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}
	return encodeFit(img, size)
}
