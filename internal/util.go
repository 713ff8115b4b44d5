package internal

import (
	"fmt"
	"path"
	"strings"
)

// MatchGlobParents is like path.Match, but will match if any component matches
// with optional anchoring. Matching is case-insensitive, like paths in the
// game.
func MatchGlobParents(pattern string, name string) (matched bool, err error) {
	// the game normalizes paths to lowercase backslash-separated ones
	pattern = strings.ToLower(strings.ReplaceAll(pattern, "\\", "/"))
	name = strings.ToLower(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Trim(name, "/")

	// check if anchored
	pattern, anchor := strings.CutPrefix(pattern, "/")

	// remove consecutive and extra leading/trailing slashes
	pattern = strings.Join(strings.FieldsFunc(pattern, func(r rune) bool { return r == '/' }), "/")
	name = strings.Join(strings.FieldsFunc(name, func(r rune) bool { return r == '/' }), "/")

	// special case: if anchored but empty, match everything
	if anchor && pattern == "" {
		return true, nil
	}

	for name != "" {
		if m, err := path.Match(pattern, name); m || err != nil {
			return m, err
		}
		parent, base := path.Split(name)
		if !anchor {
			if m, err := path.Match(pattern, base); m || err != nil {
				return m, err
			}
		}
		name = strings.TrimRight(parent, "/")
	}
	return false, nil
}

// FormatBytesSI formats the provided quantity with SI prefixes.
func FormatBytesSI(b int64) string {
	sign := ""
	if b < 0 {
		sign, b = "-", -b
	}
	const unit = 1000
	if b < unit {
		return fmt.Sprintf("%s%d B", sign, b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%s%.1f %cB", sign, float64(b)/float64(div), "kMGTPE"[exp])
}

// FormatRatio formats a compressed/uncompressed size pair as a percentage.
func FormatRatio(compressed, uncompressed int64) string {
	if uncompressed == 0 {
		return "-"
	}
	return fmt.Sprintf("%5.1f%%", float64(compressed)/float64(uncompressed)*100)
}
