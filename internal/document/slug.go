package document

import (
	"regexp"
	"strings"
)

// MaxSlugLength caps derived slugs so they stay usable as file and object names.
const MaxSlugLength = 200

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Derive maps a title to its slug: ASCII lower-case, every run of characters
// outside [a-z0-9] collapsed to a single hyphen, no leading or trailing hyphen.
// Non-ASCII bytes count as separators. A title with nothing left returns
// ErrInvalidTitle.
func Derive(title string) (string, error) {
	var b strings.Builder
	b.Grow(len(title))
	sep := false
	for i := 0; i < len(title); i++ {
		c := title[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') {
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteByte(c)
			continue
		}
		sep = true
	}
	s := b.String()
	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	if s == "" {
		return "", ErrInvalidTitle
	}
	return s, nil
}

// Valid reports whether s is already a canonical slug.
func Valid(s string) bool {
	return len(s) <= MaxSlugLength && slugPattern.MatchString(s)
}

// DisplayTitle turns a slug back into a readable title ("my-doc" -> "My Doc").
func DisplayTitle(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
