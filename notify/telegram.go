// Package notify sends run summaries to a Telegram chat.
package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"review-scraper/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Summary describes the outcome of one scraping run
type Summary struct {
	RunID          string
	URL            string
	PagesRequested int
	PagesFetched   int
	PagesFailed    int
	Reviews        int
	Kept           int
	AverageRating  *float64
	Outputs        []string
	SheetURL       string
	Duration       time.Duration
}

// Notifier posts run summaries to one chat
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// NewNotifier creates a Notifier authorized with token; the token is checked against the Bot API
func NewNotifier(token string, chatID int64, logger zerolog.Logger) (*Notifier, error) {
	return newNotifier(token, tgbotapi.APIEndpoint, chatID, logger)
}

func newNotifier(token, endpoint string, chatID int64, logger zerolog.Logger) (*Notifier, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: logger.With().Str("component", "notify").Logger(),
	}, nil
}

// SendSummary posts s to the configured chat
func (n *Notifier) SendSummary(s Summary) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatSummary(s))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	n.logger.Debug().Int64("chat_id", n.chatID).Msg("Summary sent")
	return nil
}

// FormatSummary renders s as a Telegram HTML message
func FormatSummary(s Summary) string {
	var b strings.Builder

	b.WriteString("✅ <b>Review scrape finished</b>\n")
	fmt.Fprintf(&b, "🔗 %s\n", html.EscapeString(s.URL))
	fmt.Fprintf(&b, "📄 Pages: %d/%d fetched", s.PagesFetched, s.PagesRequested)
	if s.PagesFailed > 0 {
		fmt.Fprintf(&b, ", %d failed", s.PagesFailed)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "📝 Reviews: %d", s.Reviews)
	if s.Kept != s.Reviews {
		fmt.Fprintf(&b, " (%d after filters)", s.Kept)
	}
	b.WriteString("\n")

	if s.AverageRating != nil {
		fmt.Fprintf(&b, "⭐ Average rating: %.2f\n", *s.AverageRating)
	}
	for _, out := range s.Outputs {
		fmt.Fprintf(&b, "💾 %s\n", html.EscapeString(out))
	}
	if s.SheetURL != "" {
		fmt.Fprintf(&b, "📊 <a href=\"%s\">Open sheet</a>\n", html.EscapeString(s.SheetURL))
	}
	fmt.Fprintf(&b, "⏱ %s", s.Duration.Round(time.Second))
	if s.RunID != "" {
		fmt.Fprintf(&b, "\n<code>%s</code>", html.EscapeString(s.RunID))
	}

	return b.String()
}

// AverageRating returns the mean of the known ratings, or nil when no review has one
func AverageRating(reviews []models.Review) *float64 {
	var sum float64
	var n int
	for _, r := range reviews {
		if r.Rating != nil {
			sum += *r.Rating
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return models.Float(sum / float64(n))
}
