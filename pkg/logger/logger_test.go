package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, false)

	l.Debug("hidden")
	l.Info("refresh done")
	l.Error("fetch failed", errors.New("timeout"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "✅ refresh done\n")
	assert.Contains(t, out, "❌ fetch failed\n")
	assert.Contains(t, out, "   timeout\n")
}

func TestConsoleLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleLogger(&buf, true).Debug("visible")
	assert.Equal(t, "🔍 visible\n", buf.String())
}

func TestRollbarLogger_EchoesToConsole(t *testing.T) {
	var buf bytes.Buffer
	l := NewRollbarLogger(NewConsoleLogger(&buf, false), RollbarConfig{Environment: "test"})

	l.Warn("slow refresh", map[string]interface{}{"ms": 1200})
	assert.Contains(t, buf.String(), "slow refresh")
	assert.Contains(t, buf.String(), "map[ms:1200]")
}

func TestSetDefault(t *testing.T) {
	prev := Default()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	SetDefault(NewConsoleLogger(&buf, false))
	Errorf("action %s failed", "createTask")
	assert.Contains(t, buf.String(), "action createTask failed")

	SetDefault(nil)
	assert.IsType(t, Nop{}, Default())
}
