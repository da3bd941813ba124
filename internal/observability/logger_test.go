// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/bluehensdev/formpilot/internal/config"
)

// testWriter adapts a bytes.Buffer to zapcore.WriteSyncer so tests can
// capture the console stream without touching os.Stdout.
type testWriter struct {
	buf bytes.Buffer
}

func (w *testWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *testWriter) Sync() error                 { return nil }

func TestInitializeConsoleLogger(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	w := &testWriter{}
	Initialize(config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "formpilot-test",
	}, w)

	GetLogger().Info("hello from the console sink")

	out := w.buf.String()
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "hello from the console sink")
	assert.Contains(t, out, colorGreen, "info level should be colorized")
	assert.Contains(t, out, "formpilot-test.")
}

func TestInitializeJSONFileSink(t *testing.T) {
	// lumberjack starts a rotation goroutine on first write and offers no way
	// to stop it; everything else must come back down after Sync.
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"))

	ResetForTest()
	t.Cleanup(ResetForTest)

	logFile := filepath.Join(t.TempDir(), "formpilot.log")
	w := &testWriter{}
	Initialize(config.LoggerConfig{
		Level:       "info",
		Format:      "console",
		ServiceName: "formpilot-test",
		LogFile:     logFile,
		MaxSize:     1,
	}, w)

	GetLogger().Warn("rotated file sink check")
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "rotated file sink check", entry["msg"])
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	w := &testWriter{}
	Initialize(config.LoggerConfig{Level: "chatty", Format: "console"}, w)

	GetLogger().Debug("should be suppressed")
	GetLogger().Info("should appear")

	out := w.buf.String()
	assert.NotContains(t, out, "should be suppressed")
	assert.Contains(t, out, "should appear")
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	// Must not panic and must hand back something usable.
	logger := GetLogger()
	require.NotNil(t, logger)
}

func TestColorizedLevelEncoderCoversAllLevels(t *testing.T) {
	levels := []zapcore.Level{
		zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel,
		zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel,
	}
	for _, lvl := range levels {
		enc := &stringArrayEncoder{}
		colorizedLevelEncoder(lvl, enc)
		require.Len(t, enc.items, 1)
		assert.Contains(t, enc.items[0], colorReset)
	}
}

// stringArrayEncoder is a minimal PrimitiveArrayEncoder for encoder tests.
type stringArrayEncoder struct {
	zapcore.PrimitiveArrayEncoder
	items []string
}

func (e *stringArrayEncoder) AppendString(s string) { e.items = append(e.items, s) }
