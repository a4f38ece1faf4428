package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slugify turns a title into a URL-safe slug. Accents are folded onto their base
// letters ("Zürich" -> "zurich") and anything outside [a-z0-9-] is dropped.
// It returns "" when nothing usable is left.
func Slugify(title string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		title,
	)
	if err != nil {
		folded = title
	}
	s := strings.ToLower(folded)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugWhitespace.ReplaceAllString(strings.TrimSpace(s), "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// fallbackSlug names untitled posts after their creation instant.
func fallbackSlug(now time.Time) string {
	return fmt.Sprintf("post-%d", now.UnixMilli())
}

func suffixed(base string, n int) string {
	return fmt.Sprintf("%s-%d", base, n)
}
