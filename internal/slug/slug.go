package slug

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxLength bounds the base slug; numeric suffixes may extend past it.
const MaxLength = 120

var (
	disallowedRegexp = regexp.MustCompile(`[^a-z0-9\s-]+`)
	whitespaceRegexp = regexp.MustCompile(`\s+`)
	hyphensRegexp    = regexp.MustCompile(`-{2,}`)
)

// Generate creates a URL-friendly slug from a business name.
//
// Examples:
//   - "Al-Khair Bakers!!" → "al-khair-bakers"
//   - "  Pizza   Hut " → "pizza-hut"
//   - "!!!" → ""
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = disallowedRegexp.ReplaceAllString(s, "")
	s = whitespaceRegexp.ReplaceAllString(s, "-")
	s = hyphensRegexp.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Fallback is the placeholder used when a name has no slug-able characters.
func Fallback(now time.Time) string {
	return "business-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Base returns Generate(name), or Fallback(now) when that is empty.
func Base(name string, now time.Time) string {
	if s := Generate(name); s != "" {
		return s
	}
	return Fallback(now)
}

// Candidate returns the n-th probe for base: base itself, then base-1, base-2, ...
func Candidate(base string, n int) string {
	if n <= 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}
