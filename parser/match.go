package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// matcher reports whether a single node satisfies one heuristic
type matcher func(s *goquery.Selection) bool

// classContains matches nodes whose class attribute contains any of subs, ignoring case
func classContains(subs ...string) matcher {
	lowered := make([]string, 0, len(subs))
	for _, sub := range subs {
		if sub = strings.ToLower(strings.TrimSpace(sub)); sub != "" {
			lowered = append(lowered, sub)
		}
	}
	return func(s *goquery.Selection) bool {
		class := strings.ToLower(s.AttrOr("class", ""))
		if class == "" {
			return false
		}
		for _, sub := range lowered {
			if strings.Contains(class, sub) {
				return true
			}
		}
		return false
	}
}

// ownStringMatches matches nodes that hold exactly one string (see ownString) accepted by pred
func ownStringMatches(pred func(string) bool) matcher {
	return func(s *goquery.Selection) bool {
		if s.Length() == 0 {
			return false
		}
		text, ok := ownString(s.Get(0))
		return ok && pred(text)
	}
}

// ownString returns the single string held by n: a node whose only child is a text node
// holds that text, and a node whose only child is an element holds that element's string.
// Nodes with several children hold no string.
func ownString(n *html.Node) (string, bool) {
	if n == nil || n.FirstChild == nil || n.FirstChild != n.LastChild {
		return "", false
	}
	child := n.FirstChild
	switch child.Type {
	case html.TextNode:
		return child.Data, true
	case html.ElementNode:
		return ownString(child)
	}
	return "", false
}

// firstNested returns the first descendant of s, in document order, that matches selector and m
func firstNested(s *goquery.Selection, selector string, m matcher) *goquery.Selection {
	return s.Find(selector).FilterFunction(func(_ int, c *goquery.Selection) bool {
		return m(c)
	}).First()
}

// textNodes returns the descendant text nodes of s in document order, skipping script and style content
func textNodes(s *goquery.Selection) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				out = append(out, c.Data)
			case html.ElementNode:
				if c.Data == "script" || c.Data == "style" {
					continue
				}
				walk(c)
			}
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return out
}

// firstTextNode returns the first descendant text node accepted by pred
func firstTextNode(s *goquery.Selection, pred func(string) bool) (string, bool) {
	for _, text := range textNodes(s) {
		if pred(text) {
			return text, true
		}
	}
	return "", false
}

// longerThan reports whether trimmed text has more than n characters
func longerThan(text string, n int) bool {
	return utf8.RuneCountInString(strings.TrimSpace(text)) > n
}

func containsFold(text, sub string) bool {
	return strings.Contains(strings.ToLower(text), sub)
}
