// Package cache stores generated thumbnails on disk, one PNG per
// (kind, fingerprint). Entries are written once and never updated or removed;
// a changed source file gets a new fingerprint and the old entry is orphaned.
package cache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/justyntemme/razord/internal/metrics"
)

type Kind string

const (
	Image Kind = "img_thumbnails"
	PSD   Kind = "psd_thumbnails"
	Video Kind = "video_thumbnails"
)

// Label is the short name used in logs and metrics.
func (k Kind) Label() string {
	switch k {
	case Image:
		return "image"
	case PSD:
		return "psd"
	case Video:
		return "video"
	}
	return string(k)
}

const (
	dirPermission  = 0o755
	filePermission = 0o644
)

// Key fingerprints a thumbnail request by the source's absolute path, its
// modification time in milliseconds and the requested pixel size. Fields are
// length-delimited so distinct triples never share an encoding.
func Key(path string, modMillis int64, size int) string {
	d := xxhash.New()
	var buf [8]byte

	binary.BigEndian.PutUint64(buf[:], uint64(len(path)))
	d.Write(buf[:])
	d.WriteString(path)

	binary.BigEndian.PutUint64(buf[:], uint64(modMillis))
	d.Write(buf[:])

	binary.BigEndian.PutUint64(buf[:], uint64(size))
	d.Write(buf[:])

	return fmt.Sprintf("%016x", d.Sum64())
}

// KeyFor is Key using the modification time from info.
func KeyFor(path string, info os.FileInfo, size int) string {
	return Key(path, info.ModTime().UnixMilli(), size)
}

type Store struct {
	root string
	log  *zap.Logger
}

func New(root string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{root: root, log: log}
}

func (s *Store) Root() string { return s.root }

// Path returns where the entry for key lives, whether or not it exists.
func (s *Store) Path(kind Kind, key string) string {
	return filepath.Join(s.root, string(kind), key+".png")
}

// Get returns the cached bytes for key. Any read failure or an empty file is
// a miss.
func (s *Store) Get(kind Kind, key string) ([]byte, bool) {
	data, err := os.ReadFile(s.Path(kind, key))
	hit := err == nil && len(data) > 0
	metrics.RecordCacheLookup(kind.Label(), hit)
	if !hit {
		return nil, false
	}
	s.log.Debug("cache hit", zap.String("kind", kind.Label()), zap.String("key", key))
	return data, true
}

// Put writes data for key. Failures are logged and counted, never returned:
// the caller already holds the result and the cache is only an optimization.
// A failed write removes whatever part of the file was written.
func (s *Store) Put(kind Kind, key string, data []byte) {
	if len(data) == 0 {
		return
	}
	dir := filepath.Join(s.root, string(kind))
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		s.writeFailed(kind, key, err)
		return
	}
	path := s.Path(kind, key)
	if err := os.WriteFile(path, data, filePermission); err != nil {
		os.Remove(path)
		s.writeFailed(kind, key, err)
	}
}

func (s *Store) writeFailed(kind Kind, key string, err error) {
	metrics.RecordCacheWriteFailure(kind.Label())
	s.log.Warn("cache write failed",
		zap.String("kind", kind.Label()),
		zap.String("key", key),
		zap.Error(err))
}
