package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, DEBUG, ParseLevel("DEBUG"))
	require.Equal(t, WARN, ParseLevel(" warning "))
	require.Equal(t, ERROR, ParseLevel("error"))
	require.Equal(t, INFO, ParseLevel("verbose"))
}

func TestScopedOutputAndLevels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(INFO)
	t.Cleanup(func() { SetLevel(INFO) })

	log := For("render").With("id", "abc123")
	log.Debugf("hidden %d", 1)
	log.Warnf("stderr had %d lines", 3)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[WARN]")
	require.Contains(t, out, "[render] id=abc123 stderr had 3 lines")
	require.Contains(t, out, "logger_test.go", "caller file is reported")
	require.False(t, strings.Contains(out, colorYellow), "file output is uncolored")
}
