package ops

import (
	"io"
	"os"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// minCharsetConfidence is the chardet confidence (0-100) below which a
// guess is ignored.
const minCharsetConfidence = 50

// ReadText returns at most maxBytes bytes of path as a string. Invalid UTF-8
// is replaced with U+FFFD, unless charset detection is enabled and finds a
// confident match, in which case the bytes are transcoded from it.
func (e *Engine) ReadText(path string, maxBytes int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", e.record(OpReadText, opErr(OpReadText, path, err))
	}
	defer f.Close()

	if maxBytes < 0 {
		maxBytes = 0
	}
	buf, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)))
	if err != nil {
		return "", e.record(OpReadText, opErr(OpReadText, path, err))
	}
	e.record(OpReadText, nil)

	if utf8.Valid(buf) {
		return string(buf), nil
	}
	if e.detectCharset {
		if s, ok := e.transcode(path, buf); ok {
			return s, nil
		}
	}
	return lossyUTF8(buf), nil
}

func (e *Engine) transcode(path string, buf []byte) (string, bool) {
	res, err := chardet.NewTextDetector().DetectBest(buf)
	if err != nil || res.Confidence < minCharsetConfidence {
		return "", false
	}
	enc, err := htmlindex.Get(res.Charset)
	if err != nil {
		return "", false
	}
	out, err := enc.NewDecoder().Bytes(buf)
	if err != nil {
		return "", false
	}
	e.log.Debug("transcoded text",
		zap.String("path", path),
		zap.String("charset", res.Charset),
		zap.Int("confidence", res.Confidence))
	return string(out), true
}

func lossyUTF8(buf []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(buf)
	if err != nil {
		return string([]rune(string(buf)))
	}
	return string(out)
}
