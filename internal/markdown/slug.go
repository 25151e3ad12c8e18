package markdown

import (
	"strconv"
	"strings"
	"unicode"
)

// Slugger turns heading text into URL-fragment anchors, disambiguating
// repeated headings within one document by appending a numeric suffix.
// State is scoped to a single document; create one per segmentation pass.
type Slugger struct {
	seen map[string]int
}

func NewSlugger() *Slugger {
	return &Slugger{seen: make(map[string]int)}
}

// Slug returns the anchor for text, unique among all anchors this Slugger
// has produced. The first occurrence keeps the bare slug; repeats get
// "-1", "-2" and so on.
func (s *Slugger) Slug(text string) string {
	base := slugify(text)
	n := s.seen[base]
	s.seen[base] = n + 1
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// slugify lowercases text, drops punctuation and collapses separator runs
// into single hyphens.
func slugify(text string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			hyphen = true
		}
	}
	return b.String()
}
