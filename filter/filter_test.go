package filter

import (
	"testing"

	"review-scraper/config"
	"review-scraper/models"
)

func TestApplyFilters(t *testing.T) {
	reviews := []models.Review{
		{Rating: models.Float(5), HelpfulVotes: models.Int(10), ReviewText: "five"},
		{Rating: models.Float(2), HelpfulVotes: models.Int(40), ReviewText: "two"},
		{ReviewText: "unrated"},
		{Rating: models.Float(3.5), HelpfulVotes: models.Int(1), ReviewText: "three and a half"},
	}

	tests := []struct {
		name string
		cfg  config.Filters
		want []string
	}{
		{"no criteria", config.Filters{}, []string{"five", "two", "unrated", "three and a half"}},
		{"min rating", config.Filters{MinRating: 3.5}, []string{"five", "unrated", "three and a half"}},
		{"min helpful votes", config.Filters{MinHelpfulVotes: 10}, []string{"five", "two", "unrated"}},
		{"both", config.Filters{MinRating: 3, MinHelpfulVotes: 5}, []string{"five", "unrated"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFilter(tt.cfg).ApplyFilters(reviews)
			if len(got) != len(tt.want) {
				t.Fatalf("ApplyFilters() returned %d reviews, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.ReviewText != tt.want[i] {
					t.Errorf("review %d = %q, want %q", i, r.ReviewText, tt.want[i])
				}
			}
		})
	}
}

func TestActive(t *testing.T) {
	if NewFilter(config.Filters{}).Active() {
		t.Error("empty filter should not be active")
	}
	if !NewFilter(config.Filters{MinRating: 1}).Active() {
		t.Error("min rating filter should be active")
	}
}
