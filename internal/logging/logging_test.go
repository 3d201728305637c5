package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(test *testing.T) {
	cases := []struct {
		in       string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{" Debug ", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, c := range cases {
		require.Equal(test, c.expected, ParseLevel(c.in, zerolog.InfoLevel), c.in)
	}
}

func TestNew_JSON(test *testing.T) {
	req := require.New(test)
	out := bytes.Buffer{}
	log := New(&out, "warn", FormatJSON)

	log.Info().Msg("hidden")
	log.Warn().Str("peer", "alice").Msg("visible")

	record := map[string]any{}
	req.NoError(json.Unmarshal(out.Bytes(), &record))
	req.Equal("visible", record["message"])
	req.Equal("alice", record["peer"])
	req.Equal("warn", record["level"])
	req.Contains(record, "time")
}

func TestNew_Console(test *testing.T) {
	out := bytes.Buffer{}
	log := New(&out, "debug", FormatConsole)
	log.Debug().Msg("listening")
	require.Contains(test, out.String(), "listening")
}
