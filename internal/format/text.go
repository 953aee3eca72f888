// Package format holds the terminal text helpers shared by the table
// renderer, the TUI and the ratelimit command.
package format

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis marks text cut short by Truncate.
const Ellipsis = "..."

// escapes matches SGR color sequences and OSC 8 hyperlink wrappers.
var escapes = regexp.MustCompile(`\x1b\[[0-9;]*m|\x1b]8;[^\x1b\a]*(?:\x1b\\|\a)`)

// StripEscapes removes color and hyperlink escape sequences.
func StripEscapes(s string) string {
	return escapes.ReplaceAllString(s, "")
}

// Width returns the number of terminal columns s occupies once escape
// sequences are removed. East Asian wide runes and emoji count as two.
func Width(s string) int {
	return runewidth.StringWidth(StripEscapes(s))
}

// Truncate shortens plain text to at most max columns, ending it with
// Ellipsis when anything was dropped. It returns the result and its width.
func Truncate(s string, max int) (string, int) {
	if w := runewidth.StringWidth(s); w <= max {
		return s, w
	}
	if max <= len(Ellipsis) {
		cut := runewidth.Truncate(s, max, "")
		return cut, runewidth.StringWidth(cut)
	}
	cut := runewidth.Truncate(s, max, Ellipsis)
	return cut, runewidth.StringWidth(cut)
}

// PadRight pads s with spaces to target columns. width is the visible
// width of s, passed in because s may carry escapes Width cannot see
// through (for example a hyperlink wrapped around already measured text).
func PadRight(s string, width, target int) string {
	if width >= target {
		return s
	}
	return s + strings.Repeat(" ", target-width)
}
