// Package markdown splits documentation pages into heading-scoped segments
// with stable slug anchors and reduces markdown to plain text.
package markdown

import (
	"regexp"
	"strings"

	"github.com/MissionSquad/missionsquad-docs/internal/domain"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)
	titleRe   = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// Scanner walks a markdown document line by line and produces one Segment per
// heading-scoped region. It is a finite, single-pass iterator: call Next until
// it returns false, reading Segment after each true.
type Scanner struct {
	lines   []string
	pos     int
	slugger *Slugger

	title     string
	heading   string
	anchor    string
	anchorSet bool
	buf       []string
	inFence   bool

	cur  domain.Segment
	done bool
}

// NewScanner prepares a segmentation pass over md. The document title is taken
// from the first level-1 heading, falling back to defaultTitle; content before
// the first heading is attributed to the title itself.
func NewScanner(md, defaultTitle string) *Scanner {
	title := defaultTitle
	if m := titleRe.FindStringSubmatch(md); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			title = t
		}
	}
	return &Scanner{
		lines:   strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n"),
		slugger: NewSlugger(),
		title:   title,
		heading: title,
	}
}

// Title returns the resolved document title.
func (s *Scanner) Title() string { return s.title }

// Next advances to the next segment. It returns false when the document is
// exhausted; the trailing buffer after the last heading is flushed as the
// final segment.
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	for s.pos < len(s.lines) {
		line := s.lines[s.pos]
		s.pos++

		if isFenceLine(line) {
			s.inFence = !s.inFence
			s.buf = append(s.buf, line)
			continue
		}
		m := headingRe.FindStringSubmatch(line)
		if m == nil || s.inFence {
			s.buf = append(s.buf, line)
			continue
		}

		flushed := s.flush()
		s.heading = strings.TrimSpace(m[2])
		s.anchor = s.slugger.Slug(s.heading)
		s.anchorSet = true
		if flushed {
			return true
		}
	}
	s.done = true
	return s.flush()
}

// Segment returns the segment produced by the last successful Next call.
func (s *Scanner) Segment() domain.Segment { return s.cur }

// flush closes the accumulated buffer as one segment tagged with the current
// heading context. The anchor for content before any heading is derived from
// the title on demand, so a following heading with the same text still claims
// the bare slug first.
func (s *Scanner) flush() bool {
	if len(s.buf) == 0 {
		return false
	}
	if !s.anchorSet {
		s.anchor = s.slugger.Slug(s.heading)
		s.anchorSet = true
	}
	s.cur = domain.Segment{
		Heading: s.heading,
		Content: strings.Join(s.buf, "\n"),
		Anchor:  s.anchor,
		Title:   s.title,
	}
	s.buf = nil
	return true
}

// Segments runs a full pass and collects every segment of md.
func Segments(md, defaultTitle string) []domain.Segment {
	sc := NewScanner(md, defaultTitle)
	var out []domain.Segment
	for sc.Next() {
		out = append(out, sc.Segment())
	}
	return out
}

func isFenceLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "```") || strings.HasPrefix(t, "~~~")
}
