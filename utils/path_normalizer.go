package utils

import (
	"regexp"
	"strings"
)

// PathSeparator is the canonical separator used for every tree key and stored path.
const PathSeparator = "/"

var repeatedSeparators = regexp.MustCompile(`/+`)

// NormalizePath converts backslashes to forward slashes and collapses repeated separators.
// An empty input yields an empty string.
func NormalizePath(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, "\\", PathSeparator)
	return repeatedSeparators.ReplaceAllString(p, PathSeparator)
}

// JoinPath drops empty parts, joins the rest with the canonical separator and normalizes the result.
func JoinPath(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return NormalizePath(strings.Join(kept, PathSeparator))
}

// HasSeparator reports whether p contains either kind of path separator.
func HasSeparator(p string) bool {
	return strings.ContainsAny(p, "/\\")
}
