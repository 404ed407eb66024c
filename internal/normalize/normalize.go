// Package normalize canonicalizes recognized speech before any matching.
package normalize

import (
    "regexp"
    "strings"
)

var (
    nonWord    = regexp.MustCompile(`[^\w\s]`)
    whitespace = regexp.MustCompile(`\s+`)
    scriptTag  = regexp.MustCompile(`(?is)<script\b.*?</script>`)
    anyTag     = regexp.MustCompile(`<[^>]*>`)
)

// Normalize lowercases, strips punctuation and symbols, collapses repeated
// whitespace and trims. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
    s = strings.ToLower(strings.TrimSpace(s))
    s = nonWord.ReplaceAllString(s, "")
    s = whitespace.ReplaceAllString(s, " ")
    return strings.TrimSpace(s)
}

// Sanitize strips script blocks and tag-like substrings from text that is
// about to be committed verbatim into a free-text field.
func Sanitize(s string) string {
    s = scriptTag.ReplaceAllString(s, "")
    s = anyTag.ReplaceAllString(s, "")
    return strings.TrimSpace(s)
}
