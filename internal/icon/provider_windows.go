//go:build windows

package icon

import (
	"errors"
	"image"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/justyntemme/razord/internal/safe"
)

var (
	shell32 = windows.NewLazySystemDLL("shell32.dll")
	user32  = windows.NewLazySystemDLL("user32.dll")
	gdi32   = windows.NewLazySystemDLL("gdi32.dll")

	procSHGetFileInfoW = shell32.NewProc("SHGetFileInfoW")
	procSHGetImageList = shell32.NewProc("SHGetImageList")
	procGetIconInfo    = user32.NewProc("GetIconInfo")
	procDestroyIcon    = user32.NewProc("DestroyIcon")
	procGetDC          = user32.NewProc("GetDC")
	procReleaseDC      = user32.NewProc("ReleaseDC")
	procGetDIBits      = gdi32.NewProc("GetDIBits")
	procGetObjectW     = gdi32.NewProc("GetObjectW")
	procDeleteObject   = gdi32.NewProc("DeleteObject")
)

const (
	shgfiIcon         = 0x000000100
	shgfiSysIconIndex = 0x000004000
	shgfiLargeIcon    = 0x000000000
	shgfiSmallIcon    = 0x000000001

	shilLarge      = 0 // 32x32
	shilSmall      = 1 // 16x16
	shilExtraLarge = 2 // 48x48
	shilJumbo      = 4 // 256x256

	ildTransparent = 0x1
	biRGB          = 0
	dibRGBColors   = 0
)

// {46EB5926-582E-4017-9FDF-E8998DAA0950}
var iidIImageList = windows.GUID{
	Data1: 0x46EB5926,
	Data2: 0x582E,
	Data3: 0x4017,
	Data4: [8]byte{0x9F, 0xDF, 0xE8, 0x99, 0x8D, 0xAA, 0x09, 0x50},
}

type shFileInfo struct {
	hIcon         windows.Handle
	iIcon         int32
	dwAttributes  uint32
	szDisplayName [windows.MAX_PATH]uint16
	szTypeName    [80]uint16
}

type iconInfo struct {
	fIcon    int32
	xHotspot uint32
	yHotspot uint32
	hbmMask  windows.Handle
	hbmColor windows.Handle
}

type bitmap struct {
	bmType       int32
	bmWidth      int32
	bmHeight     int32
	bmWidthBytes int32
	bmPlanes     uint16
	bmBitsPixel  uint16
	bmBits       uintptr
}

type bitmapInfoHeader struct {
	biSize          uint32
	biWidth         int32
	biHeight        int32
	biPlanes        uint16
	biBitCount      uint16
	biCompression   uint32
	biSizeImage     uint32
	biXPelsPerMeter int32
	biYPelsPerMeter int32
	biClrUsed       uint32
	biClrImportant  uint32
}

// iImageList mirrors the COM object layout: a pointer to the vtable.
type iImageList struct {
	vtbl *iImageListVtbl
}

// Only the slots up to GetIcon are declared.
type iImageListVtbl struct {
	QueryInterface  uintptr
	AddRef          uintptr
	Release         uintptr
	Add             uintptr
	ReplaceIcon     uintptr
	SetOverlayImage uintptr
	Replace         uintptr
	AddMasked       uintptr
	Draw            uintptr
	Remove          uintptr
	GetIcon         uintptr
}

// ShellProvider asks the Windows shell for the icon registered for a path.
type ShellProvider struct{}

func NewPlatformProvider() NativeIconProvider {
	return ShellProvider{}
}

func (ShellProvider) Icon(path string, size int) ([]byte, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}

	hIcon, err := systemImageListIcon(p, size)
	if err != nil {
		hIcon, err = fileInfoIcon(p, size)
		if err != nil {
			return nil, err
		}
	}
	defer procDestroyIcon.Call(uintptr(hIcon))

	img, err := iconToImage(hIcon)
	if err != nil {
		return nil, err
	}
	return encodeFit(img, size)
}

func imageListFor(size int) int {
	switch {
	case size > 48:
		return shilJumbo
	case size > 32:
		return shilExtraLarge
	case size > 16:
		return shilLarge
	default:
		return shilSmall
	}
}

// systemImageListIcon resolves the system image list index of path and
// pulls the icon from the image list that best fits size.
func systemImageListIcon(path *uint16, size int) (windows.Handle, error) {
	var info shFileInfo
	r, _, _ := procSHGetFileInfoW.Call(
		uintptr(unsafe.Pointer(path)),
		0,
		uintptr(unsafe.Pointer(&info)),
		unsafe.Sizeof(info),
		shgfiSysIconIndex,
	)
	if r == 0 {
		return 0, safe.ErrUnavailable
	}

	var list *iImageList
	hr, _, _ := procSHGetImageList.Call(
		uintptr(imageListFor(size)),
		uintptr(unsafe.Pointer(&iidIImageList)),
		uintptr(unsafe.Pointer(&list)),
	)
	if hr != 0 || list == nil {
		return 0, errors.New("SHGetImageList failed")
	}
	defer syscall.SyscallN(list.vtbl.Release, uintptr(unsafe.Pointer(list)))

	var hIcon windows.Handle
	hr, _, _ = syscall.SyscallN(list.vtbl.GetIcon,
		uintptr(unsafe.Pointer(list)),
		uintptr(info.iIcon),
		ildTransparent,
		uintptr(unsafe.Pointer(&hIcon)),
	)
	if hr != 0 || hIcon == 0 {
		return 0, errors.New("IImageList.GetIcon failed")
	}
	return hIcon, nil
}

func fileInfoIcon(path *uint16, size int) (windows.Handle, error) {
	flags := uintptr(shgfiIcon | shgfiLargeIcon)
	if size <= 16 {
		flags = shgfiIcon | shgfiSmallIcon
	}
	var info shFileInfo
	r, _, _ := procSHGetFileInfoW.Call(
		uintptr(unsafe.Pointer(path)),
		0,
		uintptr(unsafe.Pointer(&info)),
		unsafe.Sizeof(info),
		flags,
	)
	if r == 0 || info.hIcon == 0 {
		return 0, safe.ErrUnavailable
	}
	return info.hIcon, nil
}

// iconToImage copies the color bitmap of hIcon into an NRGBA image.
func iconToImage(hIcon windows.Handle) (image.Image, error) {
	var ii iconInfo
	if r, _, _ := procGetIconInfo.Call(uintptr(hIcon), uintptr(unsafe.Pointer(&ii))); r == 0 {
		return nil, errors.New("GetIconInfo failed")
	}
	defer procDeleteObject.Call(uintptr(ii.hbmMask))
	if ii.hbmColor == 0 {
		return nil, errors.New("monochrome icon")
	}
	defer procDeleteObject.Call(uintptr(ii.hbmColor))

	var bm bitmap
	if r, _, _ := procGetObjectW.Call(uintptr(ii.hbmColor), unsafe.Sizeof(bm), uintptr(unsafe.Pointer(&bm))); r == 0 {
		return nil, errors.New("GetObject failed")
	}
	w, h := int(bm.bmWidth), int(bm.bmHeight)
	if w <= 0 || h <= 0 {
		return nil, errors.New("empty icon bitmap")
	}

	hdr := bitmapInfoHeader{
		biSize:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
		biWidth:       int32(w),
		biHeight:      -int32(h), // top-down
		biPlanes:      1,
		biBitCount:    32,
		biCompression: biRGB,
	}
	buf := make([]byte, w*h*4)

	dc, _, _ := procGetDC.Call(0)
	if dc == 0 {
		return nil, errors.New("GetDC failed")
	}
	defer procReleaseDC.Call(0, dc)

	lines, _, _ := procGetDIBits.Call(
		dc,
		uintptr(ii.hbmColor),
		0,
		uintptr(h),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(unsafe.Pointer(&hdr)),
		dibRGBColors,
	)
	if lines == 0 {
		return nil, errors.New("GetDIBits failed")
	}

	return bgraToNRGBA(buf, w, h), nil
}

// bgraToNRGBA swaps channel order. Icons without an alpha channel come back
// with every alpha byte zero and are made opaque.
func bgraToNRGBA(buf []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	hasAlpha := false
	for i := 0; i+3 < len(buf); i += 4 {
		img.Pix[i+0] = buf[i+2]
		img.Pix[i+1] = buf[i+1]
		img.Pix[i+2] = buf[i+0]
		img.Pix[i+3] = buf[i+3]
		if buf[i+3] != 0 {
			hasAlpha = true
		}
	}
	if !hasAlpha {
		for i := 3; i < len(img.Pix); i += 4 {
			img.Pix[i] = 0xff
		}
	}
	return img
}
