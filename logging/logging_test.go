package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "warn", false)

	l.Info().Msg("hidden")
	require.Empty(t, buf.String())

	l.Warn().Str("url", "https://site.example").Msg("page failed")
	require.Contains(t, buf.String(), `"level":"warn"`)
	require.Contains(t, buf.String(), `"url":"https://site.example"`)
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "chatty", false)

	l.Debug().Msg("hidden")
	require.Empty(t, buf.String())
	l.Info().Msg("shown")
	require.Contains(t, buf.String(), "shown")
}
