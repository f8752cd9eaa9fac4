package markup

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Elements whose content is emitted exactly as parsed.
var rawElements = map[string]bool{
	"pre":      true,
	"textarea": true,
	"script":   true,
	"style":    true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

const indentUnit = "  "

// Format re-serializes an HTML document. Pretty output puts every element on
// its own line, indented by nesting depth. Compact output drops whitespace
// between tags and collapses runs of whitespace inside text.
func Format(src []byte, pretty bool) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if pretty {
		p := &printer{buf: &buf}
		p.node(doc, 0)
		return buf.Bytes(), p.err
	}

	compact(doc)
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func compact(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			text := collapseSpace(c.Data)
			if strings.TrimSpace(text) == "" {
				n.RemoveChild(c)
			} else {
				c.Data = text
			}
		case html.ElementNode:
			if !rawElements[c.Data] {
				compact(c)
			}
		default:
			compact(c)
		}
		c = next
	}
}

type printer struct {
	buf *bytes.Buffer
	err error
}

func (p *printer) node(n *html.Node, depth int) {
	switch n.Type {
	case html.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			p.node(c, depth)
		}
	case html.DoctypeNode, html.CommentNode:
		p.indent(depth)
		p.render(n)
		p.buf.WriteByte('\n')
	case html.TextNode:
		text := strings.TrimSpace(collapseSpace(n.Data))
		if text == "" {
			return
		}
		p.indent(depth)
		p.buf.WriteString(html.EscapeString(text))
		p.buf.WriteByte('\n')
	case html.ElementNode:
		p.element(n, depth)
	}
}

func (p *printer) element(n *html.Node, depth int) {
	p.indent(depth)
	if rawElements[n.Data] {
		p.render(n)
		p.buf.WriteByte('\n')
		return
	}

	p.openTag(n)
	if voidElements[n.Data] {
		p.buf.WriteByte('\n')
		return
	}

	if text, ok := inlineText(n); ok {
		p.buf.WriteString(html.EscapeString(text))
		p.closeTag(n)
		p.buf.WriteByte('\n')
		return
	}

	p.buf.WriteByte('\n')
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.node(c, depth+1)
	}
	p.indent(depth)
	p.closeTag(n)
	p.buf.WriteByte('\n')
}

func (p *printer) openTag(n *html.Node) {
	p.buf.WriteByte('<')
	p.buf.WriteString(n.Data)
	for _, attr := range n.Attr {
		p.buf.WriteByte(' ')
		if attr.Namespace != "" {
			p.buf.WriteString(attr.Namespace)
			p.buf.WriteByte(':')
		}
		p.buf.WriteString(attr.Key)
		p.buf.WriteString(`="`)
		p.buf.WriteString(html.EscapeString(attr.Val))
		p.buf.WriteByte('"')
	}
	p.buf.WriteByte('>')
}

func (p *printer) closeTag(n *html.Node) {
	p.buf.WriteString("</")
	p.buf.WriteString(n.Data)
	p.buf.WriteByte('>')
}

func (p *printer) render(n *html.Node) {
	if p.err != nil {
		return
	}
	p.err = html.Render(p.buf, n)
}

func (p *printer) indent(depth int) {
	for range depth {
		p.buf.WriteString(indentUnit)
	}
}

// inlineText reports whether n holds nothing but text, returning it trimmed.
// Such elements are printed on a single line.
func inlineText(n *html.Node) (string, bool) {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			return "", false
		}
		parts = append(parts, c.Data)
	}
	return strings.TrimSpace(collapseSpace(strings.Join(parts, ""))), true
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
			}
			space = true
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return b.String()
}
