package markdown

import (
	"regexp"
	"strings"
)

var (
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	htmlTagRe    = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	headPrefixRe = regexp.MustCompile(`^#{1,6}\s+`)
	listPrefixRe = regexp.MustCompile(`^(\s*)([-*+]|\d+[.)])\s+`)
	quotePrefix  = regexp.MustCompile(`^\s*>\s?`)
	tableRuleRe  = regexp.MustCompile(`^\s*\|?[\s:|-]+\|[\s:|-]*$`)
	emphasisRe   = regexp.MustCompile(`(\*{1,3}|_{1,3}|~~)`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
)

// Plain reduces markdown to plain text: formatting markup is stripped, code
// fence markers and table rules are dropped (code content is kept verbatim),
// and all whitespace runs collapse to single spaces with the ends trimmed.
func Plain(md string) string {
	var out []string
	inFence := false
	for _, line := range strings.Split(strings.ReplaceAll(md, "\r\n", "\n"), "\n") {
		if isFenceLine(line) {
			inFence = !inFence
			continue
		}
		if inFence {
			out = append(out, line)
			continue
		}
		if tableRuleRe.MatchString(line) {
			continue
		}
		line = headPrefixRe.ReplaceAllString(line, "")
		line = quotePrefix.ReplaceAllString(line, "")
		line = listPrefixRe.ReplaceAllString(line, "$1")
		line = imageRe.ReplaceAllString(line, "$1")
		line = linkRe.ReplaceAllString(line, "$1")
		line = htmlTagRe.ReplaceAllString(line, "")
		line = emphasisRe.ReplaceAllString(line, "")
		line = strings.ReplaceAll(line, "`", "")
		line = strings.ReplaceAll(line, "|", " ")
		out = append(out, line)
	}
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(strings.Join(out, " "), " "))
}
