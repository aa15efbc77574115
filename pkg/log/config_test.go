package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		" WARN ":   zerolog.WarnLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"":         zerolog.InfoLevel,
		"nonsense": zerolog.InfoLevel,
	}
	for in, want := range cases {
		require.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_WritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "debug", Component: "tauchat", Output: &buf})

	logger.Debug().Str(FieldChannel, "pubsub/abc").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "tauchat", entry[FieldComponent])
	require.Equal(t, "pubsub/abc", entry[FieldChannel])
	require.Equal(t, "hello", entry["message"])
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Info().Msg("dropped")
	require.Zero(t, buf.Len())
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	var buf bytes.Buffer
	scoped := New(Config{Output: &buf})

	ctx := WithLogger(context.Background(), scoped)
	l := Ctx(ctx)
	l.Info().Msg("scoped")
	require.Contains(t, buf.String(), "scoped")

	require.Equal(t, L().GetLevel(), Ctx(context.Background()).GetLevel())
}
