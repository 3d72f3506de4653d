package assets

import (
	"strings"
	"unicode"

	"github.com/weftlabs/weft/internal/errors"
)

const (
	markerOpen  = "{%"
	markerClose = "%}"
)

// ParseDeclaration extracts the asset declaration from a component source.
//
// The metadata header is a run of marker tags at the top of the source:
//
//	{% css card.css shared/theme.css %}
//	{% js card.js %}
//
// Each marker lists zero or more whitespace-separated relative paths. Both
// markers are optional, independent, and may repeat; paths accumulate in
// declaration order. The header ends at the first content that is not a
// css/js marker.
//
// ParseDeclaration returns the declaration and the remaining template body
// with the header stripped. A marker without a closing "%}" is a syntax
// error reported with the marker's source position; file is used only for
// error reporting.
func ParseDeclaration(file, source string) (Declaration, string, error) {
	var decl Declaration
	rest := source

	for {
		trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if !strings.HasPrefix(trimmed, markerOpen) {
			break
		}

		inner := strings.TrimLeftFunc(trimmed[len(markerOpen):], unicode.IsSpace)
		keyword := leadingWord(inner)
		if keyword != "css" && keyword != "js" {
			// Not an asset marker; the header is over.
			break
		}

		end := strings.Index(trimmed, markerClose)
		// A second "{%" before the close means the first marker was never
		// terminated and we found the closing of a later one.
		if end == -1 || strings.Contains(trimmed[len(markerOpen):end], markerOpen) {
			line, col := position(source, len(source)-len(trimmed))
			return Declaration{}, "", errors.SyntaxErrorf(file, line, col,
				"unterminated %s marker: missing %q", keyword, markerClose)
		}

		fields := strings.Fields(trimmed[len(markerOpen):end])
		// fields[0] is the keyword itself.
		paths := fields[1:]
		if keyword == "css" {
			decl.CSS = append(decl.CSS, paths...)
		} else {
			decl.JS = append(decl.JS, paths...)
		}

		rest = trimmed[end+len(markerClose):]
	}

	return decl, strings.TrimLeft(rest, "\n"), nil
}

// leadingWord returns the first whitespace-delimited token of s.
func leadingWord(s string) string {
	for i, r := range s {
		if unicode.IsSpace(r) {
			return s[:i]
		}
	}
	return s
}

// position converts a byte offset into a 1-based line and column.
func position(source string, offset int) (line, col int) {
	if offset > len(source) {
		offset = len(source)
	}
	prefix := source[:offset]
	line = 1 + strings.Count(prefix, "\n")
	if idx := strings.LastIndexByte(prefix, '\n'); idx >= 0 {
		col = offset - idx
	} else {
		col = offset + 1
	}
	return line, col
}
