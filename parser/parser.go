package parser

import (
	"regexp"
	"strings"

	"codecast-bot/types"
)

// Delimiter grammar for one content message:
//
//	!!!top caption!!!   @@bottom caption@@   ///lang
//	                                         code
//	                                         ///
//
// Everything left over after the delimited regions are removed is the
// narration. The language tag after /// is optional and only counts when
// it sits alone on the opening line.
var (
	topRe    = regexp.MustCompile(`(?s)!!!(.*?)!!!`)
	bottomRe = regexp.MustCompile(`(?s)@@(.*?)@@`)
	codeRe   = regexp.MustCompile(`(?s)///(?:[a-zA-Z]*\n)?(.*?)///`)
)

// Extract pulls the delimited regions out of one raw message. Regions are
// extracted in a fixed order (top caption, bottom caption, code) and each
// first occurrence is removed from the working text before the next lookup,
// so overlapping delimiters cannot cross-contaminate. Pure function; callers
// validate that narration and code are non-empty.
func Extract(text string) types.ParsedContent {
	var c types.ParsedContent
	text, c.TopCaption = cut(text, topRe)
	text, c.BottomCaption = cut(text, bottomRe)
	text, c.Code = cut(text, codeRe)
	c.Narration = strings.TrimSpace(text)
	return c
}

// cut removes the first match of re from text and returns the remaining
// text plus the trimmed capture group.
func cut(text string, re *regexp.Regexp) (string, string) {
	m := re.FindStringSubmatchIndex(text)
	if m == nil {
		return text, ""
	}
	field := strings.TrimSpace(text[m[2]:m[3]])
	return text[:m[0]] + text[m[1]:], field
}
