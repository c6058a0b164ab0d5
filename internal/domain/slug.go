package domain

import (
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidSlug reports whether s is usable as a URL slug.
func ValidSlug(s string) bool {
	return len(s) <= 200 && slugPattern.MatchString(s)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the slug the admin editor proposes for a title.
func Slugify(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}
