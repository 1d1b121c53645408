package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/justyntemme/razord/internal/ops"
	"github.com/justyntemme/razord/internal/preview"
)

// DefaultReadTextBytes applies when read_text omits max_bytes.
const DefaultReadTextBytes = 64 * 1024

type pathRequest struct {
	Path string `json:"path" binding:"required"`
}

type sizedRequest struct {
	Path string `json:"path" binding:"required"`
	Size int    `json:"size" binding:"required,gt=0"`
}

type transferRequest struct {
	Sources []string `json:"sources" binding:"required,min=1"`
	Dest    string   `json:"dest" binding:"required"`
}

type sourcesRequest struct {
	Sources []string `json:"sources" binding:"required,min=1"`
}

type deleteRequest struct {
	Paths    []string `json:"paths" binding:"required,min=1"`
	UseTrash bool     `json:"use_trash"`
}

type renameRequest struct {
	OldPath string `json:"old_path" binding:"required"`
	NewPath string `json:"new_path" binding:"required"`
}

type readTextRequest struct {
	Path     string `json:"path" binding:"required"`
	MaxBytes *int   `json:"max_bytes" binding:"omitempty,gte=0"`
}

func (s *Server) commands() map[string]gin.HandlerFunc {
	a := s.app
	return map[string]gin.HandlerFunc{
		"list_directory": handle(func(r pathRequest) (any, error) {
			return a.ListDirectory(r.Path)
		}),
		"is_directory": handle(func(r pathRequest) (any, error) {
			return a.IsDirectory(r.Path), nil
		}),
		"list_drives": func(c *gin.Context) {
			respond(c, a.ListDrives(), nil)
		},
		"get_dimensions": handle(func(r pathRequest) (any, error) {
			return a.GetDimensions(r.Path)
		}),
		"get_image_thumbnail": handle(func(r sizedRequest) (any, error) {
			return optional(a.GetImageThumbnail(r.Path, r.Size))
		}),
		"get_layered_image_thumbnail": handle(func(r sizedRequest) (any, error) {
			return optional(a.GetLayeredImageThumbnail(r.Path, r.Size))
		}),
		"get_video_thumbnail": handle(func(r sizedRequest) (any, error) {
			return optional(a.GetVideoThumbnail(r.Path, r.Size))
		}),
		"get_icon": handle(func(r sizedRequest) (any, error) {
			data, ok := a.GetIcon(r.Path, r.Size)
			return optional(data, ok, nil)
		}),
		"copy": handle(func(r transferRequest) (any, error) {
			return nil, a.Copy(r.Sources, r.Dest)
		}),
		"duplicate": handle(func(r sourcesRequest) (any, error) {
			return a.Duplicate(r.Sources)
		}),
		"move": handle(func(r transferRequest) (any, error) {
			return nil, a.Move(r.Sources, r.Dest)
		}),
		"delete": handle(func(r deleteRequest) (any, error) {
			return nil, a.Delete(r.Paths, r.UseTrash)
		}),
		"create_directory": handle(func(r pathRequest) (any, error) {
			return nil, a.CreateDirectory(r.Path)
		}),
		"rename": handle(func(r renameRequest) (any, error) {
			return nil, a.Rename(r.OldPath, r.NewPath)
		}),
		"compress_to_archive": handle(func(r transferRequest) (any, error) {
			return a.CompressToArchive(r.Sources, r.Dest)
		}),
		"read_text": handle(func(r readTextRequest) (any, error) {
			limit := DefaultReadTextBytes
			if r.MaxBytes != nil {
				limit = *r.MaxBytes
			}
			return a.ReadText(r.Path, limit)
		}),
	}
}

// handle binds the JSON body into Req and responds with fn's result.
func handle[Req any](fn func(Req) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Req
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		data, err := fn(req)
		respond(c, data, err)
	}
}

func respond(c *gin.Context, data any, err error) {
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// optional turns a "no result" into a JSON null.
func optional(s string, ok bool, err error) (any, error) {
	if err != nil || !ok {
		return nil, err
	}
	return s, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, fs.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, fs.ErrExist),
		errors.Is(err, ops.ErrCopyIntoSelf),
		errors.Is(err, ops.ErrSameFile):
		return http.StatusConflict
	case errors.Is(err, preview.ErrInvalidSize):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
