package models

// Review represents a single customer review extracted from a review page.
// Every field except ReviewText is optional and nil when it could not be found.
type Review struct {
	Rating       *float64 `json:"rating"`
	Title        *string  `json:"title"`
	ReviewText   string   `json:"review_text"`
	ReviewerName *string  `json:"reviewer_name"`
	Date         *string  `json:"date"`
	HelpfulVotes *int     `json:"helpful_votes"`
}

// Columns is the fixed output column order shared by every exporter.
var Columns = []string{"rating", "title", "review_text", "reviewer_name", "date", "helpful_votes"}

// Float returns a pointer to v
func Float(v float64) *float64 { return &v }

// String returns a pointer to v
func String(v string) *string { return &v }

// Int returns a pointer to v
func Int(v int) *int { return &v }
