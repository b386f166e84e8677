package utils

import (
	"math/rand"
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[\s\W-]+`)

const slugSuffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Slugify lowercases the name and collapses runs of non-word characters to single dashes.
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SlugWithSuffix appends a short random suffix so renamed products never collide on the
// unique slug column.
func SlugWithSuffix(text string) string {
	base := Slugify(text)
	if base == "" {
		base = "product"
	}
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = slugSuffixAlphabet[rand.Intn(len(slugSuffixAlphabet))]
	}
	return base + "-" + string(suffix)
}
