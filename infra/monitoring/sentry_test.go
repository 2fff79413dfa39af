package monitoring

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cspbc/config"
	"github.com/kilianp07/cspbc/core/instance"
	coremon "github.com/kilianp07/cspbc/core/monitoring"
	"github.com/kilianp07/cspbc/core/solution"
)

func TestNewSentryMonitor_NoDSN(t *testing.T) {
	mon, err := NewSentryMonitor(config.SentryConfig{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, mon)
}

func TestSentryMonitor_CapturesWithTags(t *testing.T) {
	var mu sync.Mutex
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn: "https://public@example.com/1",
		BeforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)
	mon := &sentryMonitor{hub: sentry.NewHub(client, sentry.NewScope())}

	mon.CaptureException(nil, nil)
	mon.CaptureException(errors.New("unknown token"), map[string]string{"stage": "solution"})
	mon.CaptureException(errors.New("no tags"), nil)
	parseErr := fmt.Errorf("read csp50_base_cm27_sol.txt: %w", &solution.ParseError{Line: 3, Token: "x", Msg: "unknown token"})
	mon.CaptureException(parseErr, map[string]string{"stage": "solution", "file": "csp50_base_cm27_sol.txt"})
	mon.Flush(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, "solution", events[0].Tags["stage"])
	assert.Equal(t, sentry.LevelError, events[1].Level)

	pe := events[2]
	assert.Equal(t, sentry.LevelWarning, pe.Level)
	assert.Equal(t, []string{"parse-error", "solution", "csp50_base_cm27_sol.txt"}, pe.Fingerprint)
	require.Contains(t, pe.Contexts, "parse")
	assert.Equal(t, "x", pe.Contexts["parse"]["token"])
}

func TestParseContext(t *testing.T) {
	ctx, ok := parseContext(fmt.Errorf("load: %w", &instance.ParseError{Name: "csp50", Line: 7, Msg: "not an integer"}))
	require.True(t, ok)
	assert.Equal(t, "csp50", ctx["file"])
	assert.Equal(t, 7, ctx["line"])

	_, ok = parseContext(errors.New("disk full"))
	assert.False(t, ok)
}
