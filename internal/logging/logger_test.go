package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lines decodes every JSON log line written to buf.
func lines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		out = append(out, m)
	}
	return out
}

func TestNew_WritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info").Info().Str("conversationId", "c-1").Msg("reply delivered")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "info", got[0]["level"])
	assert.Equal(t, "reply delivered", got[0]["message"])
	assert.Equal(t, "c-1", got[0]["conversationId"])
	assert.Contains(t, got[0], "time")
}

func TestNew_NilWriterUsesConsole(t *testing.T) {
	require.NotNil(t, New(nil, "info"))
}

func TestSub_TagsSubsystem(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "debug")

	log.Sub("gateway").Info().Msg("server starting")
	log.Sub("responder").Warn().Msg("breaker tripped")
	log.Info().Msg("root")

	got := lines(t, &buf)
	require.Len(t, got, 3)
	assert.Equal(t, "gateway", got[0]["subsystem"])
	assert.Equal(t, "responder", got[1]["subsystem"])
	assert.NotContains(t, got[2], "subsystem")
}

func TestWith_AddsField(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info").Sub("relay").With("conversationId", "thread-9").Info().Msg("handled")

	got := lines(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "relay", got[0]["subsystem"])
	assert.Equal(t, "thread-9", got[0]["conversationId"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")

	log.Debug().Msg("debug msg")
	log.Info().Msg("info msg")
	assert.Empty(t, buf.String())

	log.Warn().Msg("warn msg")
	log.Error().Msg("error msg")
	got := lines(t, &buf)
	require.Len(t, got, 2)
	assert.Equal(t, "warn", got[0]["level"])
	assert.Equal(t, "error", got[1]["level"])
}

func TestSilentLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "silent")

	log.Info().Msg("should not appear")
	log.Error().Msg("should not appear")
	assert.Empty(t, buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"fatal", zerolog.FatalLevel},
		{"silent", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
		{"DEBUG", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, name := range []string{"trace", "debug", "info", "warn", "error", "fatal", "silent"} {
		assert.True(t, ValidLevel(name), name)
	}
	assert.False(t, ValidLevel("verbose"))
	assert.False(t, ValidLevel(""))
}

func TestNewWithStyle(t *testing.T) {
	require.NotNil(t, NewWithStyle(StyleJSON, "info"))
	require.NotNil(t, NewWithStyle(StylePretty, "debug"))
}
