package poi

import (
	"regexp"
	"strings"
	"unicode"
)

// Normalizer canonicalizes raw name strings for comparison: honorific tokens
// are stripped at word boundaries, internal whitespace is collapsed, and the
// result is case-folded only when the string contains a Latin letter.  CJK
// characters are preserved as-is; lowercasing them is a no-op that could mask
// distinct unicode forms.
type Normalizer struct {
	honorificRe *regexp.Regexp
}

// NewNormalizer builds a Normalizer from the honorific list in cfg.  The list
// is matched case-insensitively with an optional trailing period, so "Mr",
// "Mr." and "MR." are all stripped.
func NewNormalizer(cfg MatchConfig) *Normalizer {
	tokens := make([]string, 0, len(cfg.Honorifics))
	for _, h := range cfg.Honorifics {
		if h == "" {
			continue
		}
		tokens = append(tokens, regexp.QuoteMeta(h))
	}
	if len(tokens) == 0 {
		// Degenerate config: match nothing.
		return &Normalizer{honorificRe: regexp.MustCompile(`\b\B`)}
	}
	pattern := `(?i)\b(` + strings.Join(tokens, "|") + `)\.?(\s+|$)`
	return &Normalizer{honorificRe: regexp.MustCompile(pattern)}
}

// Normalize returns the canonical comparison form of raw.  Empty and
// whitespace-only input yields the empty string; there are no error
// conditions.
func (n *Normalizer) Normalize(raw string) string {
	s := n.honorificRe.ReplaceAllString(raw, " ")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	if containsLatin(s) {
		s = strings.ToLower(s)
	}
	return s
}

// containsLatin reports whether s contains at least one Latin-script letter.
func containsLatin(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Latin, r) {
			return true
		}
	}
	return false
}

// containsCJK reports whether s contains at least one Han character.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// cjkSubsequence extracts the Han-character subsequence of s, dropping any
// Latin suffix or embedded punctuation.  Chinese names are compared on this
// subsequence alone so a trailing Latin nickname does not dilute the score.
func cjkSubsequence(s string) []rune {
	var out []rune
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			out = append(out, r)
		}
	}
	return out
}
