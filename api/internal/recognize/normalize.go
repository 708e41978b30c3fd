package recognize

import (
	"regexp"
	"strings"
)

var (
	reLatexFence = regexp.MustCompile("```latex\n?")
	reFence      = regexp.MustCompile("```\n?")
	reDollars    = regexp.MustCompile(`^\$+|\$+$`)
)

// Normalize turns a raw endpoint body into displayable markup.
//
// The endpoint sometimes wraps its answer in a stray double quote. It is
// stripped textually rather than by decoding an envelope, because a JSON
// decode would eat LaTeX backslashes (\f, \n, \t). This is fragile: markup
// that legitimately starts or ends with '"' loses that character, and
// since steps repeat, every layer of quotes goes (""x"" becomes x).
//
// Steps repeat until the text stops changing, so Normalize(Normalize(s)) ==
// Normalize(s).
func Normalize(body string) string {
	s := body
	for {
		next := normalizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func normalizeOnce(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	s = strings.TrimSpace(s)

	s = reLatexFence.ReplaceAllString(s, "")
	s = reFence.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = reDollars.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
