package note

import (
	"html"
	"net/url"
	"strings"

	nethtml "golang.org/x/net/html"

	"github.com/gfranca/ripple/internal/stream"
)

// ContentLines renders a note's HTML content as wrapped plain-text lines,
// falling back to the summary when the content is empty or unparseable.
func ContentLines(n stream.Note, width int) []string {
	if width < 1 {
		width = 1
	}
	content := strings.TrimSpace(n.Content)
	if content == "" {
		summary := strings.TrimSpace(n.Summary)
		if summary == "" {
			return nil
		}
		return wrapText(summary, width)
	}

	text := textFromHTML(content)
	if text == "" {
		text = strings.TrimSpace(n.Summary)
	}
	if text == "" {
		return nil
	}
	return wrapText(text, width)
}

// ImageURLs extracts http(s) image sources from an HTML fragment, deduped
// and in document order.
func ImageURLs(content string) []string {
	doc, err := parseFragment(content)
	if err != nil || doc == nil {
		return nil
	}

	var out []string
	seen := make(map[string]struct{})
	var walk func(*nethtml.Node)
	walk = func(node *nethtml.Node) {
		if node.Type == nethtml.ElementNode && node.Data == "img" {
			for _, attr := range node.Attr {
				if attr.Key != "src" {
					continue
				}
				raw := strings.TrimSpace(html.UnescapeString(attr.Val))
				if raw == "" {
					break
				}
				parsed, err := url.Parse(raw)
				if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
					break
				}
				if _, ok := seen[raw]; ok {
					break
				}
				seen[raw] = struct{}{}
				out = append(out, raw)
				break
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return out
}

func parseFragment(raw string) (*nethtml.Node, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	doc, err := nethtml.Parse(strings.NewReader("<html><body>" + raw + "</body></html>"))
	if err != nil {
		return nil, err
	}
	return findBody(doc), nil
}

func findBody(node *nethtml.Node) *nethtml.Node {
	if node.Type == nethtml.ElementNode && node.Data == "body" {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findBody(child); found != nil {
			return found
		}
	}
	return nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "pre": true,
}

func textFromHTML(raw string) string {
	body, err := parseFragment(raw)
	if err != nil || body == nil {
		return strings.TrimSpace(html.UnescapeString(raw))
	}

	var b strings.Builder
	var walk func(*nethtml.Node)
	walk = func(node *nethtml.Node) {
		switch node.Type {
		case nethtml.TextNode:
			b.WriteString(node.Data)
			return
		case nethtml.ElementNode:
			switch node.Data {
			case "script", "style":
				return
			case "br":
				b.WriteString("\n")
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if node.Type == nethtml.ElementNode && blockElements[node.Data] {
			b.WriteString("\n\n")
		}
	}
	walk(body)

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.Join(strings.Fields(line), " ")
		if trimmed == "" {
			if len(out) > 0 && out[len(out)-1] == "" {
				continue
			}
			out = append(out, "")
			continue
		}
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func wrapText(text string, width int) []string {
	if width < 1 {
		return []string{text}
	}
	paragraphs := strings.Split(text, "\n")
	out := make([]string, 0, len(paragraphs))

	for _, p := range paragraphs {
		words := strings.Fields(p)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, word := range words {
			for len(word) > width {
				if line != "" {
					out = append(out, line)
					line = ""
				}
				out = append(out, word[:width])
				word = word[width:]
			}
			if line == "" {
				line = word
				continue
			}
			if len(line)+1+len(word) <= width {
				line += " " + word
				continue
			}
			out = append(out, line)
			line = word
		}
		if line != "" {
			out = append(out, line)
		}
	}

	return out
}
