package textutil

import "strings"

// Unicode bidi and zero-width formatting controls, keyed by code point.
// Each renders as a bracketed mnemonic instead of being dropped, so a
// spoofed name still looks wrong on screen.
var formattingRuneNames = map[rune]string{
	0x00AD: "SHY",
	0x061C: "ALM",
	0x180E: "MVS",
	0x200B: "ZWSP",
	0x200C: "ZWNJ",
	0x200D: "ZWJ",
	0x200E: "LRM",
	0x200F: "RLM",
	0x2028: "LSEP",
	0x2029: "PSEP",
	0x202A: "LRE",
	0x202B: "RLE",
	0x202C: "PDF",
	0x202D: "LRO",
	0x202E: "RLO",
	0x2060: "WJ",
	0x2066: "LRI",
	0x2067: "RLI",
	0x2068: "FSI",
	0x2069: "PDI",
	0x206A: "ISS",
	0x206B: "ASS",
	0x206C: "IAFS",
	0x206D: "AAFS",
	0x206E: "NADS",
	0x206F: "NODS",
	0xFEFF: "BOM",
}

// SanitizeTerminalText replaces control characters so user-controlled
// text cannot inject escape sequences when rendered. Clean text keeps
// its tabs for ExpandTabs to align later; once a string needs rewriting
// anyway, tabs collapse to single spaces along with the rest.
func SanitizeTerminalText(text string) string {
	if strings.IndexFunc(text, riskyRune) < 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if name, ok := formattingRuneNames[r]; ok {
			b.WriteString("⟪")
			b.WriteString(name)
			b.WriteString("⟫")
			continue
		}
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func riskyRune(r rune) bool {
	if r == '\t' {
		return false
	}
	if _, ok := formattingRuneNames[r]; ok {
		return true
	}
	return r < 0x20 || r == 0x7f
}
