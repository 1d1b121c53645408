// Package ops performs bulk filesystem mutations: copy, duplicate, move,
// delete, mkdir, rename, zip archiving and bounded text reads.
//
// Batch operations process sources in order and stop at the first failure.
// Sources handled before the failure stay mutated; nothing is rolled back.
package ops

import (
	"errors"
	"os"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/justyntemme/razord/internal/metrics"
	"github.com/justyntemme/razord/internal/trash"
)

const (
	DirPermission  = 0o755
	FilePermission = 0o644
)

// Operation names used in errors, logs and metrics.
const (
	OpCopy      = "copy"
	OpDuplicate = "duplicate"
	OpMove      = "move"
	OpDelete    = "delete"
	OpMkdir     = "create_directory"
	OpRename    = "rename"
	OpArchive   = "archive"
	OpReadText  = "read_text"
)

var (
	// ErrSourceNotRemoved is wrapped when a cross-volume move copied the
	// source but could not delete it. The copy is kept.
	ErrSourceNotRemoved = errors.New("copied but source could not be removed")
	ErrCopyIntoSelf     = errors.New("cannot copy a directory into itself")
	ErrSameFile         = errors.New("source and destination are the same file")
)

// OpError records the operation and path that failed.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

func opErr(op, path string, err error) error {
	var oe *OpError
	if errors.As(err, &oe) {
		return err
	}
	return &OpError{Op: op, Path: path, Err: err}
}

// Trasher sends a path to the OS trash.
type Trasher interface {
	MoveToTrash(path string) error
}

// TrashFunc adapts a function to Trasher.
type TrashFunc func(path string) error

func (f TrashFunc) MoveToTrash(path string) error { return f(path) }

type Engine struct {
	log *zap.Logger

	rename          func(oldpath, newpath string) error
	trasher         Trasher
	permanentDelete func(path string) error
	removeAll       func(path string) error

	copyWord      string
	detectCharset bool
}

type Option func(*Engine)

// WithRename replaces os.Rename, e.g. to simulate a cross-volume move.
func WithRename(fn func(oldpath, newpath string) error) Option {
	return func(e *Engine) { e.rename = fn }
}

func WithTrasher(t Trasher) Option {
	return func(e *Engine) { e.trasher = t }
}

// WithPermanentDelete replaces the non-trash removal used by Delete.
func WithPermanentDelete(fn func(path string) error) Option {
	return func(e *Engine) { e.permanentDelete = fn }
}

// WithRemoveAll replaces the source removal used after a copying move.
func WithRemoveAll(fn func(path string) error) Option {
	return func(e *Engine) { e.removeAll = fn }
}

// WithLocale picks the duplicate-name suffix for a BCP 47 tag.
func WithLocale(tag string) Option {
	return func(e *Engine) { e.copyWord = copyWordFor(tag) }
}

// WithCharsetDetection makes ReadText guess and transcode non-UTF-8 input.
func WithCharsetDetection(on bool) Option {
	return func(e *Engine) { e.detectCharset = on }
}

func New(log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		log:             log,
		rename:          os.Rename,
		trasher:         TrashFunc(trash.MoveToTrash),
		permanentDelete: trash.PermanentDelete,
		removeAll:       os.RemoveAll,
		copyWord:        copyWordFor(language.English.String()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// record counts the outcome of op and passes err through.
func (e *Engine) record(op string, err error) error {
	metrics.RecordOp(op, err == nil)
	if err != nil {
		e.log.Warn("operation failed", zap.String("op", op), zap.Error(err))
	}
	return err
}
