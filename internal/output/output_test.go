package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_PlainStatusLines(t *testing.T) {
	var out, errOut bytes.Buffer
	w := NewWriter(&out, &errOut, false)

	w.Success("saved %s", "key")
	w.Info("backend at %s", "http://localhost:8000")
	w.Warning("careful")
	w.Failure("Failed to connect to backend")
	w.Muted("tokens in:%d", 3)

	assert.Equal(t, "✓ saved key\nℹ backend at http://localhost:8000\n! careful\ntokens in:3\n", out.String())
	assert.Equal(t, "✗ Failed to connect to backend\n", errOut.String())
	assert.False(t, w.Colored())
}

func TestWriter_ColoredStatusLines(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, &out, true)

	w.Success("ok")
	assert.Contains(t, out.String(), "\x1b[")
	assert.Contains(t, out.String(), "ok")
}

func TestWriter_PrintJSON(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, &out, false)

	require.NoError(t, w.PrintJSON(map[string]any{"configured": true}))
	assert.Equal(t, "{\n  \"configured\": true\n}\n", out.String())
}
