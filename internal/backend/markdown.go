// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// imageLinkRe matches inline Markdown image links. The destination is
// captured textually rather than through a Markdown parser because the
// broken case this pass exists for — unencoded spaces in artifact
// filenames — does not survive CommonMark parsing in the first place.
var imageLinkRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^()]+)\)`)

// EncodeImageLinks URL-encodes the destination of every image link in
// markdown so artifact filenames with special characters remain valid
// relative links. Already-safe destinations pass through unchanged.
func EncodeImageLinks(markdown string) string {
	return imageLinkRe.ReplaceAllStringFunc(markdown, func(link string) string {
		m := imageLinkRe.FindStringSubmatch(link)
		return "![" + m[1] + "](" + encodePath(m[2]) + ")"
	})
}

// encodePath percent-encodes everything outside the unreserved set
// plus "/" and ":", leaving path separators and scheme colons intact.
func encodePath(p string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case c == '/' || c == '.' || c == ':' || c == '-' || c == '_' || c == '~':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xf])
		}
	}
	return b.String()
}

// Stats summarizes the structure of a converted document. Recorded per
// result so backends can be compared on extraction richness, not just
// speed.
type Stats struct {
	Headings int
	Images   int
	Links    int
}

// MarkdownStats parses markdown and counts headings, inline images and
// links in its AST.
func MarkdownStats(markdown string) Stats {
	source := []byte(markdown)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(source))

	var s Stats
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading:
			s.Headings++
		case *ast.Image:
			s.Images++
		case *ast.Link:
			s.Links++
		}
		return ast.WalkContinue, nil
	})
	return s
}
