package export

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

var unsafeFilenameChars = strings.NewReplacer("/", "-", "\\", "-", "\"", "-", ":", "-")

// Slugify replaces whitespace runs with underscores and neutralises path separators.
func Slugify(raw string) string {
	slug := whitespaceRun.ReplaceAllString(strings.TrimSpace(raw), "_")
	return unsafeFilenameChars.Replace(slug)
}

// Filename derives the download name: "<scope>_<suffix>.<ext>" or "<suffix>.<ext>" when no scope
// is selected.
func Filename(scope, suffix string, format Format) string {
	ext := string(format)
	if ext == "" {
		ext = string(FormatPDF)
	}
	if slug := Slugify(scope); slug != "" {
		return slug + "_" + suffix + "." + ext
	}
	return suffix + "." + ext
}
