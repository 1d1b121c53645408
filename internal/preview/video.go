package preview

import (
	"bytes"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/justyntemme/razord/internal/cache"
	"github.com/justyntemme/razord/internal/filetype"
	"github.com/justyntemme/razord/internal/metrics"
)

var videoExts = map[string]bool{
	"mp4": true, "mov": true, "avi": true, "mkv": true, "webm": true, "m4v": true,
}

// FFmpegAvailable reports whether the configured ffmpeg executable was found.
// The lookup happens once per Service.
func (s *Service) FFmpegAvailable() bool {
	_, err := s.ffmpeg()
	return err == nil
}

// Video returns a single frame of a video, scaled to size pixels wide, as
// PNG. Extraction runs out of process and is not gated. Concurrent requests
// for the same uncached frame share one ffmpeg run.
func (s *Service) Video(path string, size int) ([]byte, bool, error) {
	kind := cache.Video
	if !videoExts[filetype.Ext(path)] {
		metrics.RecordPreview(kind.Label(), metrics.OutcomeUnsupported)
		return nil, false, nil
	}

	bin, err := s.ffmpeg()
	if err != nil {
		metrics.RecordPreview(kind.Label(), metrics.OutcomeNone)
		s.log.Debug("ffmpeg not available", zap.Error(err))
		return nil, false, nil
	}

	key, data, hit, err := s.lookup(kind, path, size)
	if err != nil || hit {
		return data, hit, err
	}

	v, _, _ := s.videos.Do(key, func() (any, error) {
		frame := s.extractFrame(bin, path, size)
		if len(frame) > 0 {
			s.cache.Put(kind, key, frame)
		}
		return frame, nil
	})

	frame, _ := v.([]byte)
	if len(frame) == 0 {
		metrics.RecordPreview(kind.Label(), metrics.OutcomeNone)
		return nil, false, nil
	}
	metrics.RecordPreview(kind.Label(), metrics.OutcomeGenerated)
	return frame, true, nil
}

func (s *Service) extractFrame(bin, path string, size int) []byte {
	cmd := exec.Command(bin,
		"-ss", s.videoOffset,
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", size),
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		s.log.Debug("ffmpeg failed", zap.String("path", path), zap.Error(err))
		return nil
	}
	return out.Bytes()
}
