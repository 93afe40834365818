package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

// TestNew_FileOutput tests that file output creates directories and writes JSON lines.
func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "crmterm.log")

	log, closer, err := New(Config{Level: "info", Output: path})
	require.NoError(t, err)

	l := Component(log, "notify")
	l.Info().Str("state", "connected").Msg("channel state changed")
	l.Debug().Msg("filtered")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"notify"`)
	assert.Contains(t, string(data), `"state":"connected"`)
	assert.NotContains(t, string(data), "filtered")
}

func TestNew_Discard(t *testing.T) {
	log, closer, err := New(Config{Output: "discard", Console: true})
	require.NoError(t, err)
	log.Info().Msg("nothing")
	assert.NoError(t, closer.Close())
}
