package converter

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	apperrors "lxpfetch/pkg/errors"
)

// blockTags render as standalone blocks separated by blank lines
var blockTags = map[string]bool{
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"p": true, "div": true, "ul": true, "ol": true, "blockquote": true,
	"pre": true, "table": true, "hr": true, "section": true, "article": true,
	"figure": true, "header": true, "footer": true, "main": true, "aside": true,
}

// skipTags contribute nothing to the output
var skipTags = map[string]bool{
	"script": true, "style": true, "head": true, "noscript": true,
	"iframe": true, "svg": true, "template": true,
}

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	breakSpacing = regexp.MustCompile(` *\n *`)
)

// htmlToMarkdown converts an HTML fragment into Markdown. rewriteURL, when
// non-nil, is applied to every image source so the output can point at
// downloaded local copies instead of platform storage.
func htmlToMarkdown(src string, rewriteURL func(string) string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}

	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrorTypeConversion, "failed to parse HTML", err)
	}

	body := findBody(doc)
	if body == nil {
		return "", apperrors.New(apperrors.ErrorTypeConversion, "malformed HTML document")
	}

	r := &renderer{rewriteURL: rewriteURL}
	r.walkChildren(body)

	if len(r.blocks) == 0 {
		return "", nil
	}
	return strings.Join(r.blocks, "\n\n") + "\n", nil
}

type renderer struct {
	blocks     []string
	rewriteURL func(string) string
}

// walkChildren renders the children of a block container, accumulating
// inline runs into paragraphs between nested blocks
func (r *renderer) walkChildren(n *html.Node) {
	var inline strings.Builder
	flush := func() {
		if text := finishInline(inline.String()); text != "" {
			r.blocks = append(r.blocks, text)
		}
		inline.Reset()
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && blockTags[c.Data] {
			flush()
			r.renderBlock(c)
			continue
		}
		inline.WriteString(r.inline(c))
	}
	flush()
}

func (r *renderer) renderBlock(n *html.Node) {
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		if text := finishInline(r.inlineChildren(n)); text != "" {
			level := int(n.Data[1] - '0')
			text = strings.ReplaceAll(text, "\n", " ")
			r.blocks = append(r.blocks, strings.Repeat("#", level)+" "+text)
		}

	case "p":
		if text := finishInline(r.inlineChildren(n)); text != "" {
			r.blocks = append(r.blocks, text)
		}

	case "ul", "ol":
		if lines := r.listLines(n, n.Data == "ol", 0); len(lines) > 0 {
			r.blocks = append(r.blocks, strings.Join(lines, "\n"))
		}

	case "blockquote":
		sub := &renderer{rewriteURL: r.rewriteURL}
		sub.walkChildren(n)
		if len(sub.blocks) > 0 {
			r.blocks = append(r.blocks, quoteLines(strings.Join(sub.blocks, "\n\n")))
		}

	case "pre":
		if code := strings.TrimRight(rawText(n), "\n"); code != "" {
			r.blocks = append(r.blocks, "```\n"+code+"\n```")
		}

	case "table":
		if lines := r.tableLines(n); len(lines) > 0 {
			r.blocks = append(r.blocks, strings.Join(lines, "\n"))
		}

	case "hr":
		r.blocks = append(r.blocks, "---")

	default:
		// div and the remaining containers just hold further content
		r.walkChildren(n)
	}
}

func (r *renderer) inline(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return collapseSpace(n.Data)

	case html.ElementNode:
		if skipTags[n.Data] {
			return ""
		}
		switch n.Data {
		case "br":
			return "\n"
		case "strong", "b":
			if text := strings.TrimSpace(r.inlineChildren(n)); text != "" {
				return "**" + text + "**"
			}
			return ""
		case "em", "i":
			if text := strings.TrimSpace(r.inlineChildren(n)); text != "" {
				return "*" + text + "*"
			}
			return ""
		case "code":
			if text := strings.TrimSpace(rawText(n)); text != "" {
				return "`" + text + "`"
			}
			return ""
		case "a":
			href := attrValue(n, "href")
			text := strings.TrimSpace(r.inlineChildren(n))
			if text == "" {
				text = href
			}
			if href == "" {
				return text
			}
			return "[" + text + "](" + href + ")"
		case "img":
			src := attrValue(n, "src")
			if src == "" {
				return ""
			}
			if r.rewriteURL != nil {
				src = r.rewriteURL(src)
			}
			return "![" + attrValue(n, "alt") + "](" + src + ")"
		default:
			return r.inlineChildren(n)
		}

	default:
		return ""
	}
}

func (r *renderer) inlineChildren(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(r.inline(c))
	}
	return b.String()
}

func (r *renderer) listLines(n *html.Node, ordered bool, depth int) []string {
	indent := strings.Repeat("    ", depth)
	var lines []string
	index := 0

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		index++
		marker := "- "
		if ordered {
			marker = fmt.Sprintf("%d. ", index)
		}

		var inline strings.Builder
		var nested []string
		for g := c.FirstChild; g != nil; g = g.NextSibling {
			if g.Type == html.ElementNode && (g.Data == "ul" || g.Data == "ol") {
				nested = append(nested, r.listLines(g, g.Data == "ol", depth+1)...)
				continue
			}
			inline.WriteString(r.inline(g))
		}

		text := strings.ReplaceAll(finishInline(inline.String()), "\n", " ")
		if text == "" && len(nested) == 0 {
			continue
		}
		lines = append(lines, indent+marker+text)
		lines = append(lines, nested...)
	}
	return lines
}

func (r *renderer) tableLines(n *html.Node) []string {
	var rows [][]string
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "tr":
				var cells []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						text := strings.ReplaceAll(finishInline(r.inlineChildren(cell)), "\n", " ")
						cells = append(cells, strings.ReplaceAll(text, "|", `\|`))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
			case "thead", "tbody", "tfoot":
				collect(c)
			}
		}
	}
	collect(n)

	if len(rows) == 0 {
		return nil
	}

	var lines []string
	for i, row := range rows {
		lines = append(lines, "| "+strings.Join(row, " | ")+" |")
		if i == 0 {
			seps := make([]string, len(row))
			for j := range seps {
				seps[j] = "---"
			}
			lines = append(lines, "| "+strings.Join(seps, " | ")+" |")
		}
	}
	return lines
}

// collapseSpace folds whitespace runs into single spaces. Source newlines
// are soft whitespace in HTML; hard breaks only come from br elements.
func collapseSpace(s string) string {
	return spaceRun.ReplaceAllString(s, " ")
}

// finishInline turns an accumulated inline run into a finished block
func finishInline(s string) string {
	s = breakSpacing.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// quoteLines prefixes every line with a blockquote marker
func quoteLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

// rawText concatenates all text nodes beneath n without collapsing
func rawText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if body := findBody(c); body != nil {
			return body
		}
	}
	return nil
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
