package notify

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"review-scraper/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestFormatSummary(t *testing.T) {
	s := Summary{
		RunID:          "run-1",
		URL:            "https://shop.example/r?pid=1&lid=2",
		PagesRequested: 5,
		PagesFetched:   4,
		PagesFailed:    1,
		Reviews:        38,
		Kept:           30,
		AverageRating:  models.Float(4.25),
		Outputs:        []string{"reviews_raw.csv", "reviews_raw.json"},
		SheetURL:       "https://docs.google.com/spreadsheets/d/abc/edit#gid=7",
		Duration:       12*time.Second + 400*time.Millisecond,
	}

	got := FormatSummary(s)

	require.Contains(t, got, "https://shop.example/r?pid=1&amp;lid=2")
	require.Contains(t, got, "📄 Pages: 4/5 fetched, 1 failed\n")
	require.Contains(t, got, "📝 Reviews: 38 (30 after filters)\n")
	require.Contains(t, got, "⭐ Average rating: 4.25\n")
	require.Contains(t, got, "💾 reviews_raw.csv\n💾 reviews_raw.json\n")
	require.Contains(t, got, `<a href="https://docs.google.com/spreadsheets/d/abc/edit#gid=7">Open sheet</a>`)
	require.Contains(t, got, "⏱ 12s")
	require.True(t, strings.HasSuffix(got, "<code>run-1</code>"))
}

func TestFormatSummary_Minimal(t *testing.T) {
	got := FormatSummary(Summary{URL: "https://shop.example/r", PagesRequested: 1, PagesFetched: 1})

	require.Contains(t, got, "📄 Pages: 1/1 fetched\n")
	require.Contains(t, got, "📝 Reviews: 0\n")
	require.NotContains(t, got, "Average rating")
	require.NotContains(t, got, "Open sheet")
	require.NotContains(t, got, "<code>")
}

func TestAverageRating(t *testing.T) {
	require.Nil(t, AverageRating(nil))
	require.Nil(t, AverageRating([]models.Review{{ReviewText: "unrated"}}))

	avg := AverageRating([]models.Review{
		{Rating: models.Float(5)},
		{ReviewText: "unrated"},
		{Rating: models.Float(2)},
	})
	require.NotNil(t, avg)
	require.Equal(t, 3.5, *avg)
}

func TestSendSummary(t *testing.T) {
	var mu sync.Mutex
	var sent []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			io.WriteString(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"reviews","username":"reviews_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			mu.Lock()
			sent = append(sent, string(body))
			mu.Unlock()
			io.WriteString(w, `{"ok":true,"result":{"message_id":10,"date":0,"chat":{"id":42,"type":"private"}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	n, err := newNotifier("TOKEN", srv.URL+"/bot%s/%s", 42, zerolog.New(io.Discard))
	require.NoError(t, err)

	require.NoError(t, n.SendSummary(Summary{URL: "https://shop.example/r", Reviews: 3, Kept: 3}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, sent, 1)
	require.Contains(t, sent[0], "chat_id=42")
	require.Contains(t, sent[0], "parse_mode=HTML")
}

func TestNewNotifier_RequiresChat(t *testing.T) {
	_, err := newNotifier("TOKEN", "http://127.0.0.1:1/bot%s/%s", 0, zerolog.New(io.Discard))
	require.Error(t, err)
}
