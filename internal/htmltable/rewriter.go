// Package htmltable adds inline border styles to author-written HTML tables.
//
// The rewriter works on raw text. It never builds a DOM: stored descriptions are
// author content that may be malformed, and a strict parser would reject (or silently
// repair) markup that earlier versions accepted. Instead it splits the fragment on
// every "<table" boundary and patches tag attributes in place, so everything it does
// not touch is returned byte for byte.
package htmltable

import "strings"

const (
	tableTag     = "<table"
	headerTag    = "<th"
	cellTag      = "<td"
	styleAttr    = `style="`
	themedClass  = "h5p-table"
	borderMarker = "border"
)

// Border styles injected into tables that ask for a visible border.
const (
	SolidStyle  = "border-style:solid;"
	DoubleStyle = "border-style:double;border-width:0.2em;border-collapse:collapse;"
)

// Rewrite returns fragment with a border style injected into every table whose
// opening tag carries a border marker, and into that table's header and data cells.
//
// Text before the first table is untouched. Each "<table" occurrence starts a new
// segment that runs to the next occurrence, so nested tables are styled on their
// own terms. Tables without a border marker come back unchanged.
func Rewrite(fragment string) string {
	segments := strings.Split(fragment, tableTag)
	if len(segments) == 1 {
		return fragment
	}

	var b strings.Builder
	b.Grow(len(fragment) + len(segments)*len(DoubleStyle))
	b.WriteString(segments[0])
	for _, seg := range segments[1:] {
		b.WriteString(tableTag)
		b.WriteString(rewriteTable(seg))
	}
	return b.String()
}

// StyleFor returns the style a table with the given opening-tag attributes receives.
func StyleFor(attrs string) string {
	if strings.Contains(attrs, themedClass) {
		return SolidStyle
	}
	return DoubleStyle
}

// rewriteTable handles one segment: the text following "<table" up to the next table.
func rewriteTable(seg string) string {
	attrs := tagAttributes(seg)
	if !strings.Contains(attrs, borderMarker) {
		return seg
	}

	style := StyleFor(attrs)
	seg = injectStyle(seg, style)
	seg = rewriteTags(seg, headerTag, "ead", style)
	seg = rewriteTags(seg, cellTag, "", style)
	return seg
}

// rewriteTags injects style into every tag opening with name, scanning left to
// right. Occurrences followed by skipSuffix (e.g. "<thead") are left alone.
func rewriteTags(seg, name, skipSuffix, style string) string {
	if !strings.Contains(seg, name) {
		return seg
	}

	var b strings.Builder
	b.Grow(len(seg) + len(style))
	for {
		i := strings.Index(seg, name)
		if i < 0 {
			b.WriteString(seg)
			return b.String()
		}

		b.WriteString(seg[:i+len(name)])
		rest := seg[i+len(name):]
		if skipSuffix != "" && strings.HasPrefix(rest, skipSuffix) {
			seg = rest
			continue
		}

		rest = injectStyle(rest, style)
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:end+1])
		seg = rest[end+1:]
	}
}

// injectStyle patches the tag whose attributes start at rest (just after the tag
// name). An existing style attribute gets the rule prepended to its value; otherwise
// a new style attribute is inserted right after the tag name.
func injectStyle(rest, style string) string {
	attrs := tagAttributes(rest)
	if i := strings.Index(attrs, styleAttr); i >= 0 {
		at := i + len(styleAttr)
		return rest[:at] + style + rest[at:]
	}
	return " " + styleAttr + style + `"` + rest
}

// tagAttributes returns the text of s up to the closing '>' of the current tag, or
// all of s when the tag is never closed.
func tagAttributes(s string) string {
	if end := strings.IndexByte(s, '>'); end >= 0 {
		return s[:end]
	}
	return s
}
