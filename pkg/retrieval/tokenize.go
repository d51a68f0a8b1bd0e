package retrieval

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lowerCaser performs locale-independent case folding before tokenization,
// grounded on nevindra-oasis's use of golang.org/x/text for text
// processing — stdlib strings.ToLower is locale-naive (e.g. Turkish "I"),
// which matters for a server whose questions aren't guaranteed ASCII-only.
var lowerCaser = cases.Lower(language.Und)

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases (locale-independent), replaces runs of
// non-alphanumerics with a single space, and trims — spec §4.3 step 1.
func Normalize(question string) string {
	lowered := lowerCaser.String(question)
	replaced := nonAlnumRe.ReplaceAllString(lowered, " ")
	return strings.TrimSpace(replaced)
}

// Tokenize derives the query token set from a free-text question: normalize,
// split, drop stop-words, then apply the warp/physics focus filter — spec
// §4.3 steps 1–3.
func Tokenize(question string) []string {
	normalized := Normalize(question)
	if normalized == "" {
		return nil
	}

	var tokens []string
	for _, tok := range strings.Fields(normalized) {
		if stopWords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}

	hasFocus := false
	for _, tok := range tokens {
		if warpFocusSet[tok] {
			hasFocus = true
			break
		}
	}
	if hasFocus {
		focused := tokens[:0:0]
		for _, tok := range tokens {
			if warpFocusSet[tok] {
				focused = append(focused, tok)
			}
		}
		return focused
	}
	return tokens
}

// HasWarpFocus reports whether the question's lowercase text triggers the
// warp/physics boost set, used by scoring to apply the extra warp path
// boosts in spec §4.3.
func HasWarpFocus(question string) bool {
	normalized := Normalize(question)
	for _, tok := range strings.Fields(normalized) {
		if warpFocusSet[tok] {
			return true
		}
	}
	return false
}

// containsFold is a case-insensitive substring test over already-lowercased
// candidate text (paths/names/previews are folded once at scoring time).
func containsFold(haystack, pattern string) bool {
	return strings.Contains(haystack, strings.ToLower(pattern))
}
