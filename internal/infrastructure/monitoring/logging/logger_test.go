package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "k", Value: "v"}, String("k", "v"))
	assert.Equal(t, Field{Key: "n", Value: 7}, Int("n", 7))
	assert.Equal(t, Field{Key: "n", Value: int64(7)}, Int64("n", 7))
	assert.Equal(t, Field{Key: "f", Value: 0.5}, Float64("f", 0.5))
	assert.Equal(t, Field{Key: "b", Value: true}, Bool("b", true))
	assert.Equal(t, Field{Key: "d", Value: time.Second}, Duration("d", time.Second))
}

func TestErrField(t *testing.T) {
	assert.Equal(t, "<nil>", Err(nil).Value)
	assert.Equal(t, "boom", Err(errors.New("boom")).Value)
	assert.Equal(t, "error", Err(nil).Key)
}

func TestZapLogger_EmitsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromCore(core)

	logger.Info("profile created",
		String("poi_id", "POI-001"),
		Int("candidates", 3),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "profile created", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "POI-001", fields["poi_id"])
	assert.Equal(t, int64(3), fields["candidates"])
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewLoggerFromCore(core).Named("resolution").With(String("source_type", "EMAIL"))

	logger.Warn("agent number mismatch")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "resolution", entries[0].LoggerName)
	assert.Equal(t, "EMAIL", entries[0].ContextMap()["source_type"])
}

func TestNewLogger_Defaults(t *testing.T) {
	logger, err := NewLogger(LogConfig{})
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	// Must not panic and must return usable children.
	logger.Debug("x")
	logger.Info("x")
	logger.Error("x", Err(errors.New("e")))
	assert.NotNil(t, logger.With(String("a", "b")))
	assert.NotNil(t, logger.Named("child"))
}

func TestDefaultLogger(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	core, logs := observer.New(zapcore.InfoLevel)
	SetDefault(NewLoggerFromCore(core))
	Default().Info("via default")
	assert.Equal(t, 1, logs.Len())

	// nil must be ignored, not installed.
	SetDefault(nil)
	assert.NotNil(t, Default())
}
