package sax

import (
	"strings"
	"unicode"
)

// Name character classes follow the XML 1.0 NameStartChar / NameChar
// productions restricted to the BMP. Range tables keep the per-codepoint
// checks cheap inside the write loop.
var nameStartTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{0x003A, 0x003A, 1}, // :
		{0x0041, 0x005A, 1}, // A-Z
		{0x005F, 0x005F, 1}, // _
		{0x0061, 0x007A, 1}, // a-z
		{0x00C0, 0x00D6, 1},
		{0x00D8, 0x00F6, 1},
		{0x00F8, 0x02FF, 1},
		{0x0370, 0x037D, 1},
		{0x037F, 0x1FFF, 1},
		{0x200C, 0x200D, 1},
		{0x2070, 0x218F, 1},
		{0x2C00, 0x2FEF, 1},
		{0x3001, 0xD7FF, 1},
		{0xF900, 0xFDCF, 1},
		{0xFDF0, 0xFFFD, 1},
	},
	LatinOffset: 6,
}

var nameBodyTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{0x002D, 0x002E, 1}, // - .
		{0x0030, 0x003A, 1}, // 0-9 :
		{0x0041, 0x005A, 1},
		{0x005F, 0x005F, 1},
		{0x0061, 0x007A, 1},
		{0x00B7, 0x00B7, 1},
		{0x00C0, 0x00D6, 1},
		{0x00D8, 0x00F6, 1},
		{0x00F8, 0x037D, 1},
		{0x037F, 0x1FFF, 1},
		{0x200C, 0x200D, 1},
		{0x203F, 0x2040, 1},
		{0x2070, 0x218F, 1},
		{0x2C00, 0x2FEF, 1},
		{0x3001, 0xD7FF, 1},
		{0xF900, 0xFDCF, 1},
		{0xFDF0, 0xFFFD, 1},
	},
	LatinOffset: 8,
}

func isNameStart(r rune) bool { return unicode.Is(nameStartTable, r) }

func isNameBody(r rune) bool { return unicode.Is(nameBodyTable, r) }

// Entity names additionally admit # as a first character, introducing a
// numeric character reference.
func isEntityStart(r rune) bool { return r == '#' || isNameStart(r) }

func isEntityBody(r rune) bool { return r == '#' || isNameBody(r) }

func isWhitespace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\r' || r == '\t'
}

func isQuote(r rune) bool { return r == '"' || r == '\'' }

// applyTextOptions trims and/or collapses whitespace in text and comment
// payloads. Trim runs before normalize; CDATA bodies never pass through here.
func applyTextOptions(opt Options, s string) string {
	if opt.Trim {
		s = strings.TrimSpace(s)
	}
	if opt.Normalize {
		s = collapseWhitespace(s)
	}
	return s
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if isWhitespace(r) {
			inRun = true
			continue
		}
		if inRun {
			b.WriteByte(' ')
			inRun = false
		}
		b.WriteRune(r)
	}
	if inRun {
		// a trailing run survives as a single space when trim is off
		b.WriteByte(' ')
	}
	return b.String()
}
