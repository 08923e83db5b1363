package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestValidLevel(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		assert.True(t, ValidLevel(lvl), lvl)
	}
	for _, lvl := range []string{"", "INFO", "trace", "fatal"} {
		assert.False(t, ValidLevel(lvl), lvl)
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := wrap(zap.New(core)).With(String("component", "bridge"))

	log.Warn("advertise failed", Error(errors.New("no ipv4")), Int("port", 12345))
	log.Infof("listening on %d", 12345)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "advertise failed", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "bridge", fields["component"])
	assert.Equal(t, "no ipv4", fields["error"])
	assert.EqualValues(t, 12345, fields["port"])

	assert.Equal(t, "listening on 12345", entries[1].Message)
	assert.Equal(t, "bridge", entries[1].ContextMap()["component"])
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Error("dropped")
	assert.NoError(t, log.Sync())
}
