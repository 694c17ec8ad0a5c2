package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const ratingGlyph = "★"

var (
	numberPattern  = regexp.MustCompile(`\d+(?:\.\d+)?`)
	integerPattern = regexp.MustCompile(`\d+`)
	monthPattern   = regexp.MustCompile(`\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\b`)
)

// containerStrategy finds review containers in a whole document
type containerStrategy struct {
	name string
	find func(doc *goquery.Document) []*goquery.Selection
}

// fieldStrategy extracts one field from a container; ok is false on a miss
type fieldStrategy[T any] struct {
	name    string
	extract func(s *goquery.Selection) (T, bool)
}

// firstMatch runs strategies in order and returns the first hit with the name of the strategy that produced it
func firstMatch[T any](s *goquery.Selection, strategies []fieldStrategy[T]) (T, string, bool) {
	for _, st := range strategies {
		if v, ok := st.extract(s); ok {
			return v, st.name, true
		}
	}
	var zero T
	return zero, "", false
}

func (p *Parser) containerStrategies() []containerStrategy {
	isMarked := classContains(append([]string{"review"}, p.containerClasses...)...)
	holdsRating := ownStringMatches(func(text string) bool {
		return strings.Contains(text, ratingGlyph) || containsFold(text, "star")
	})

	return []containerStrategy{
		{
			name: "class-marker",
			find: func(doc *goquery.Document) []*goquery.Selection {
				return selections(doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
					return isMarked(s)
				}))
			},
		},
		{
			name: "rating-glyph",
			find: func(doc *goquery.Document) []*goquery.Selection {
				hits := doc.Find("div").FilterFunction(func(_ int, s *goquery.Selection) bool {
					return holdsRating(s)
				})

				var out []*goquery.Selection
				seen := make(map[*html.Node]bool)
				hits.Each(func(_ int, s *goquery.Selection) {
					block := s.Parent().Closest("div, section, article, li")
					if block.Length() == 0 || seen[block.Get(0)] {
						return
					}
					seen[block.Get(0)] = true
					out = append(out, block)
				})
				return out
			},
		},
	}
}

func (p *Parser) ratingStrategies() []fieldStrategy[float64] {
	return []fieldStrategy[float64]{
		{
			name: "star-class",
			extract: func(s *goquery.Selection) (float64, bool) {
				node := firstNested(s, "div", classContains("star"))
				if node.Length() == 0 {
					return 0, false
				}
				return ratingFromText(node.Text())
			},
		},
		{
			name: "glyph-text",
			extract: func(s *goquery.Selection) (float64, bool) {
				text, ok := firstTextNode(s, func(t string) bool {
					return strings.Contains(t, ratingGlyph)
				})
				if !ok {
					return 0, false
				}
				return validRating(float64(strings.Count(text, ratingGlyph)))
			},
		},
	}
}

func (p *Parser) titleStrategies() []fieldStrategy[string] {
	return []fieldStrategy[string]{
		{name: "title-class", extract: trimmedText("p, h1, h2, h3, h4", classContains("title", "heading"))},
	}
}

func (p *Parser) textStrategies() []fieldStrategy[string] {
	minLen := p.minTextLength
	return []fieldStrategy[string]{
		{
			name: "long-own-string",
			extract: func(s *goquery.Selection) (string, bool) {
				node := firstNested(s, "div", ownStringMatches(func(text string) bool {
					return longerThan(text, minLen)
				}))
				if node.Length() == 0 {
					return "", false
				}
				text, _ := ownString(node.Get(0))
				return strings.TrimSpace(text), true
			},
		},
		{
			name: "body-class",
			extract: func(s *goquery.Selection) (string, bool) {
				node := firstNested(s, "*", func(c *goquery.Selection) bool {
					return classContains("text", "body", "content")(c) && longerThan(c.Text(), minLen)
				})
				if node.Length() == 0 {
					return "", false
				}
				return strings.TrimSpace(node.Text()), true
			},
		},
	}
}

func (p *Parser) reviewerStrategies() []fieldStrategy[string] {
	return []fieldStrategy[string]{
		{name: "name-paragraph", extract: trimmedText("p", classContains("name"))},
		{name: "name-span", extract: trimmedText("span", classContains("name"))},
	}
}

func (p *Parser) dateStrategies() []fieldStrategy[string] {
	return []fieldStrategy[string]{
		{
			name: "month-text",
			extract: func(s *goquery.Selection) (string, bool) {
				text, ok := firstTextNode(s, monthPattern.MatchString)
				if !ok {
					return "", false
				}
				return strings.TrimSpace(text), true
			},
		},
	}
}

func (p *Parser) helpfulStrategies() []fieldStrategy[int] {
	return []fieldStrategy[int]{
		{
			name: "helpful-text",
			extract: func(s *goquery.Selection) (int, bool) {
				text, ok := firstTextNode(s, func(t string) bool {
					return containsFold(t, "helpful")
				})
				if !ok {
					return 0, false
				}
				m := integerPattern.FindString(text)
				if m == "" {
					return 0, false
				}
				n, err := strconv.Atoi(m)
				if err != nil {
					return 0, false
				}
				return n, true
			},
		},
	}
}

// trimmedText returns the trimmed text of the first nested node matching selector and m, if non-empty
func trimmedText(selector string, m matcher) func(s *goquery.Selection) (string, bool) {
	return func(s *goquery.Selection) (string, bool) {
		node := firstNested(s, selector, m)
		if node.Length() == 0 {
			return "", false
		}
		text := strings.TrimSpace(node.Text())
		return text, text != ""
	}
}

// ratingFromText counts rating glyphs, falling back to the first number in the text
func ratingFromText(text string) (float64, bool) {
	if n := strings.Count(text, ratingGlyph); n > 0 {
		return validRating(float64(n))
	}
	m := numberPattern.FindString(text)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return validRating(v)
}

func validRating(v float64) (float64, bool) {
	return v, v >= 0 && v <= 5
}

func selections(s *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, s.Length())
	s.Each(func(_ int, c *goquery.Selection) {
		out = append(out, c)
	})
	return out
}
