package geocode

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StripDiacritics folds Vietnamese accented text to plain letters. đ/Đ are
// mapped separately; NFD decomposition does not touch them.
func StripDiacritics(s string) string {
	out, _, err := transform.String(stripper, s)
	if err != nil {
		return s
	}
	out = strings.ReplaceAll(out, "đ", "d")
	out = strings.ReplaceAll(out, "Đ", "D")
	return out
}

func mentionsVietnam(s string) bool {
	folded := strings.ToLower(StripDiacritics(s))
	return strings.Contains(folded, "viet nam") || strings.Contains(folded, "vietnam")
}

// QueryVariants expands a free-text address into the ordered list of queries
// to try against the geocoder. The order encodes how specific each rewrite
// is: the raw input first, then comma-token permutations, then tail
// fragments, then diacritics-stripped duplicates of everything so far.
// Duplicates are removed preserving first occurrence.
func QueryVariants(input string) []string {
	base := strings.TrimSpace(input)
	if base == "" {
		return nil
	}

	var variants []string
	if mentionsVietnam(base) {
		variants = append(variants, base)
	} else {
		variants = append(variants, base+", Việt Nam")
	}

	tokens := splitTokens(base)
	if len(tokens) > 1 {
		variants = append(variants, strings.Join(tokens, ", "))
		variants = append(variants, strings.Join(reversed(tokens), ", "))
	}
	if len(tokens) >= 2 {
		variants = append(variants, tailVariants(tokens[len(tokens)-2:])...)
	}
	if len(tokens) >= 3 {
		variants = append(variants, tailVariants(tokens[len(tokens)-3:])...)
	}

	accented := len(variants)
	for i := 0; i < accented; i++ {
		variants = append(variants, StripDiacritics(variants[i]))
	}

	seen := make(map[string]struct{}, len(variants))
	out := make([]string, 0, len(variants))
	for _, v := range variants {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// tailVariants renders a tail fragment with the country appended first, then
// bare. Fragments that already mention the country get no suffix form.
func tailVariants(tokens []string) []string {
	tail := strings.Join(tokens, ", ")
	if mentionsVietnam(tail) {
		return []string{tail}
	}
	return []string{tail + ", Việt Nam", tail}
}

func splitTokens(s string) []string {
	parts := strings.Split(s, ",")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}

func reversed(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[len(tokens)-1-i] = t
	}
	return out
}
