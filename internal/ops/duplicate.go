package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
)

var copyWords = []struct {
	tag  language.Tag
	word string
}{
	{language.English, "copy"},
	{language.Korean, "복사"},
	{language.Japanese, "コピー"},
	{language.German, "Kopie"},
	{language.French, "copie"},
	{language.Spanish, "copia"},
}

var copyWordMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(copyWords))
	for i, w := range copyWords {
		tags[i] = w.tag
	}
	return language.NewMatcher(tags)
}()

// copyWordFor returns the duplicate suffix word for a BCP 47 tag, falling
// back to English for unknown or malformed tags.
func copyWordFor(tag string) string {
	t, err := language.Parse(tag)
	if err != nil {
		return copyWords[0].word
	}
	_, idx, conf := copyWordMatcher.Match(t)
	if conf == language.No {
		return copyWords[0].word
	}
	return copyWords[idx].word
}

// duplicateName returns the n-th candidate name for base: "stem (copy).ext"
// for n == 1 and "stem (copy n).ext" afterwards. Directories lose everything
// after the last dot, so "photos.2024" becomes "photos (copy)". Names without
// a stem, like ".config", keep their whole name before the suffix.
func duplicateName(base, word string, n int, isDir bool) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}
	if isDir {
		ext = ""
	}
	if n <= 1 {
		return fmt.Sprintf("%s (%s)%s", stem, word, ext)
	}
	return fmt.Sprintf("%s (%s %d)%s", stem, word, n, ext)
}

// Duplicate copies each source next to itself under the first free
// "(copy)" name and returns the new paths in source order.
func (e *Engine) Duplicate(sources []string) ([]string, error) {
	created := make([]string, 0, len(sources))
	for _, src := range sources {
		dst, err := e.duplicateOne(src)
		if err != nil {
			return created, e.record(OpDuplicate, opErr(OpDuplicate, src, err))
		}
		e.record(OpDuplicate, nil)
		created = append(created, dst)
	}
	return created, nil
}

func (e *Engine) duplicateOne(src string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", err
	}
	parent := filepath.Dir(src)
	base := filepath.Base(src)

	var dst string
	for n := 1; ; n++ {
		dst = filepath.Join(parent, duplicateName(base, e.copyWord, n, info.IsDir()))
		if _, err := os.Lstat(dst); os.IsNotExist(err) {
			break
		} else if err != nil {
			return "", err
		}
	}

	if info.IsDir() {
		err = e.copyDir(src, dst)
	} else {
		err = copyFile(src, dst)
	}
	if err != nil {
		return "", err
	}
	return dst, nil
}
