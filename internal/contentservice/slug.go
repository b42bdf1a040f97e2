package contentservice

import (
	"regexp"
	"strings"
)

// whitespace in the ECMAScript sense, which leaves out U+0085
const spaceClass = `\t\n\v\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

var (
	leadingRunRX = regexp.MustCompile(`^[a-zA-Z0-9` + spaceClass + `]+`)
	spaceRX      = regexp.MustCompile(`[` + spaceClass + `]`)
)

// U+0130 is the only rune whose unconditional lower case is two runes.
var lowerSpecial = strings.NewReplacer("\u0130", "i\u0307")

func isSpace(r rune) bool {
	return spaceRX.MatchString(string(r))
}

// SlugTransform derives a slug from free text. The text is trimmed and lower
// cased, a leading run of ASCII letters, digits and whitespace collapses to a
// single "-", and any whitespace left becomes "-". The result never contains
// whitespace and transforming it again returns it unchanged.
func SlugTransform(s string) string {
	s = strings.ToLower(lowerSpecial.Replace(strings.TrimFunc(s, isSpace)))
	s = leadingRunRX.ReplaceAllLiteralString(s, "-")

	return spaceRX.ReplaceAllLiteralString(s, "-")
}
