// Package filetype maps file names to the coarse categories shown next to
// directory entries.
package filetype

import (
	"path/filepath"
	"strings"
)

type Tag string

const (
	Image     Tag = "image"
	Video     Tag = "video"
	Document  Tag = "document"
	Code      Tag = "code"
	Archive   Tag = "archive"
	Directory Tag = "directory"
	Other     Tag = "other"
)

var byExt = map[string]Tag{
	"jpg": Image, "jpeg": Image, "png": Image, "gif": Image,
	"webp": Image, "bmp": Image, "svg": Image, "ico": Image,

	"mp4": Video, "mov": Video, "avi": Video, "mkv": Video, "webm": Video,

	"pdf": Document, "doc": Document, "docx": Document, "xls": Document,
	"xlsx": Document, "ppt": Document, "pptx": Document, "txt": Document, "md": Document,

	"rs": Code, "js": Code, "ts": Code, "tsx": Code, "jsx": Code, "py": Code,
	"go": Code, "java": Code, "c": Code, "cpp": Code, "h": Code, "css": Code,
	"html": Code, "json": Code, "toml": Code, "yaml": Code, "yml": Code,

	"zip": Archive, "tar": Archive, "gz": Archive, "7z": Archive,
	"rar": Archive, "dmg": Archive, "pkg": Archive,
}

// Ext returns the lowercased final extension of name without the dot, or ""
// when name has none.
func Ext(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// Classify returns the tag for a file name. Unknown or missing extensions
// are Other.
func Classify(name string) Tag {
	if t, ok := byExt[Ext(name)]; ok {
		return t
	}
	return Other
}

// ClassifyEntry is Classify, except directories are always Directory.
func ClassifyEntry(name string, isDir bool) Tag {
	if isDir {
		return Directory
	}
	return Classify(name)
}
