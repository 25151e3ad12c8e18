package markdown

import "strings"

// StripFrontMatter removes a leading YAML front-matter block delimited by
// "---" lines. Documents without front matter are returned unchanged.
func StripFrontMatter(md string) string {
	norm := strings.ReplaceAll(md, "\r\n", "\n")
	if !strings.HasPrefix(norm, "---\n") {
		return md
	}
	rest := norm[len("---\n"):]
	for off := 0; off <= len(rest); {
		end := strings.IndexByte(rest[off:], '\n')
		var line string
		if end < 0 {
			line = rest[off:]
		} else {
			line = rest[off : off+end]
		}
		if t := strings.TrimSpace(line); t == "---" || t == "..." {
			if end < 0 {
				return ""
			}
			return rest[off+end+1:]
		}
		if end < 0 {
			break
		}
		off += end + 1
	}
	// unterminated front matter, treat the document as content
	return md
}
