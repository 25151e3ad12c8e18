package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlain(t *testing.T) {
	cases := []struct {
		name string
		md   string
		want string
	}{
		{"whitespace collapsed", "a\n\n\nb   c\t d", "a b c d"},
		{"links keep text", "see [the guide](/guide.md) for more", "see the guide for more"},
		{"images keep alt", "![diagram](img.png) shows flow", "diagram shows flow"},
		{"emphasis stripped", "this is **bold** and _italic_ and ~~gone~~", "this is bold and italic and gone"},
		{"inline code unwrapped", "run `make build` twice", "run make build twice"},
		{"fence markers dropped code kept", "```go\nfmt.Println(1)\n```", "fmt.Println(1)"},
		{"list markers stripped", "- first\n- second\n1. third", "first second third"},
		{"blockquote markers stripped", "> quoted line\n> more", "quoted line more"},
		{"heading markers stripped", "### Deep Dive\ntext", "Deep Dive text"},
		{"table reduced to cells", "| a | b |\n|---|---|\n| 1 | 2 |", "a b 1 2"},
		{"html tags removed", "before <br/> after <span class=\"x\">in</span>", "before after in"},
		{"empty", "   \n\n", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Plain(tc.md))
		})
	}
}

func TestStripFrontMatter(t *testing.T) {
	t.Run("strips leading block", func(t *testing.T) {
		md := "---\ntitle: Hello\ntags: [a, b]\n---\n# Hello\nbody"
		assert.Equal(t, "# Hello\nbody", StripFrontMatter(md))
	})
	t.Run("no front matter unchanged", func(t *testing.T) {
		md := "# Hello\n---\nrule above is content"
		assert.Equal(t, md, StripFrontMatter(md))
	})
	t.Run("unterminated block kept as content", func(t *testing.T) {
		md := "---\ntitle: Hello\nbody without closing"
		assert.Equal(t, md, StripFrontMatter(md))
	})
	t.Run("dot terminator", func(t *testing.T) {
		md := "---\na: 1\n...\nrest"
		assert.Equal(t, "rest", StripFrontMatter(md))
	})
}
