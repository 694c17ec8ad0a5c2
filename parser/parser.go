package parser

import (
	"fmt"
	"strings"

	"review-scraper/config"
	"review-scraper/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// Parser extracts review records from product review pages
type Parser struct {
	containerClasses []string
	minTextLength    int
	logger           zerolog.Logger
}

// NewParser creates a new Parser instance.
// The winning strategies are logged at debug (containers) and trace (fields) level.
func NewParser(cfg config.Parser, logger zerolog.Logger) *Parser {
	return &Parser{
		containerClasses: cfg.ContainerClasses,
		minTextLength:    cfg.MinTextLength,
		logger:           logger.With().Str("component", "parser").Logger(),
	}
}

// Parse extracts reviews from HTML content, one record per container that has review text
func (p *Parser) Parse(htmlContent string) ([]models.Review, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return p.ParseDocument(doc), nil
}

// ParseDocument extracts reviews from an already parsed document
func (p *Parser) ParseDocument(doc *goquery.Document) []models.Review {
	containers, strategy := p.findContainers(doc)
	if strategy == "" {
		p.logger.Debug().Msg("No review containers found")
	} else {
		p.logger.Debug().Str("strategy", strategy).Int("containers", len(containers)).Msg("Found review containers")
	}

	var reviews []models.Review
	for _, c := range containers {
		if review := p.extractReview(c); review != nil {
			reviews = append(reviews, *review)
		}
	}
	return reviews
}

// findContainers returns the containers of the first strategy that finds any, and its name
func (p *Parser) findContainers(doc *goquery.Document) ([]*goquery.Selection, string) {
	for _, st := range p.containerStrategies() {
		if found := st.find(doc); len(found) > 0 {
			return found, st.name
		}
	}
	return nil, ""
}

// extractReview builds a record from one container, or nil when it has no review text
func (p *Parser) extractReview(s *goquery.Selection) *models.Review {
	text, textBy, ok := firstMatch(s, p.textStrategies())
	if !ok {
		p.logger.Trace().Msg("Container without review text skipped")
		return nil
	}

	review := &models.Review{ReviewText: text}
	matched := zerolog.Dict().Str("review_text", textBy)
	if v, by, ok := firstMatch(s, p.ratingStrategies()); ok {
		review.Rating = models.Float(v)
		matched.Str("rating", by)
	}
	if v, by, ok := firstMatch(s, p.titleStrategies()); ok {
		review.Title = models.String(v)
		matched.Str("title", by)
	}
	if v, by, ok := firstMatch(s, p.reviewerStrategies()); ok {
		review.ReviewerName = models.String(v)
		matched.Str("reviewer_name", by)
	}
	if v, by, ok := firstMatch(s, p.dateStrategies()); ok {
		review.Date = models.String(v)
		matched.Str("date", by)
	}
	if v, by, ok := firstMatch(s, p.helpfulStrategies()); ok {
		review.HelpfulVotes = models.Int(v)
		matched.Str("helpful_votes", by)
	}
	p.logger.Trace().Dict("strategies", matched).Msg("Extracted review")
	return review
}
