package filter

import (
	"review-scraper/config"
	"review-scraper/models"
)

// Filter applies filter criteria to reviews
type Filter struct {
	cfg config.Filters
}

// NewFilter creates a new Filter instance
func NewFilter(cfg config.Filters) *Filter {
	return &Filter{
		cfg: cfg,
	}
}

// ApplyFilters keeps the reviews matching every criterion, in their original order
func (f *Filter) ApplyFilters(reviews []models.Review) []models.Review {
	var filtered []models.Review

	for _, review := range reviews {
		if f.matchesFilters(review) {
			filtered = append(filtered, review)
		}
	}

	return filtered
}

// Active reports whether any criterion is set
func (f *Filter) Active() bool {
	return f.cfg.MinRating > 0 || f.cfg.MinHelpfulVotes > 0
}

// matchesFilters checks if a review matches all filter criteria
func (f *Filter) matchesFilters(review models.Review) bool {
	// Only filter on values that were extracted; unknown ratings and votes pass
	if review.Rating != nil && *review.Rating < f.cfg.MinRating {
		return false
	}

	if review.HelpfulVotes != nil && *review.HelpfulVotes < f.cfg.MinHelpfulVotes {
		return false
	}

	return true
}
