package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	var l Logger = New("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("checker", Options{Level: "debug", Out: &buf}).With("run_id", "r1")
	l.Debugw("solution checked", map[string]any{"instance": "csp50", "cost": 3139})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "checker", entry["component"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.Equal(t, "csp50", entry["instance"])
	assert.Equal(t, float64(3139), entry["cost"])
	assert.Equal(t, "debug", entry["level"])
}

func TestZerologLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLogger("checker", Options{Level: "warn", Out: &buf})
	l.Infof("hidden")
	l.Warnf("shown %d", 2)
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 2")

	buf.Reset()
	NewZerologLogger("checker", Options{Level: "nonsense", Out: &buf}).Debugf("dropped")
	assert.Empty(t, strings.TrimSpace(buf.String()))
}
