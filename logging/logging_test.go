package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/becomeliminal/nim-memory/logging"
)

func TestNewLevels(t *testing.T) {
	testCases := []struct {
		level       string
		expectDebug bool
		expectInfo  bool
		expectWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warning", false, false, true},
		{"ERROR", false, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, buf)

			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")

			output := buf.String()
			gt.Equal(t, strings.Contains(output, "debug message"), tc.expectDebug)
			gt.Equal(t, strings.Contains(output, "info message"), tc.expectInfo)
			gt.Equal(t, strings.Contains(output, "warn message"), tc.expectWarn)
		})
	}
}

func TestNewInvalidLevelWarns(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("loud", buf)

	logger.Info("still logging")
	gt.S(t, buf.String()).Contains("invalid log level")
	gt.S(t, buf.String()).Contains("still logging")
}

func TestParseLevel(t *testing.T) {
	lvl, ok := logging.ParseLevel("Warn")
	gt.True(t, ok)
	gt.Equal(t, lvl, slog.LevelWarn)

	lvl, ok = logging.ParseLevel("verbose")
	gt.False(t, ok)
	gt.Equal(t, lvl, slog.LevelInfo)
}

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.NewJSON("info", buf)
	logger.Info("stored", "collection", "knowledge")

	gt.S(t, buf.String()).Contains(`"msg":"stored"`)
	gt.S(t, buf.String()).Contains(`"collection":"knowledge"`)
}

func TestWithAndFrom(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf).With("component", "memory")

	ctx := logging.With(context.Background(), logger)
	gt.Equal(t, logging.From(ctx), logger)

	logging.From(ctx).Info("context message")
	gt.S(t, buf.String()).Contains("context message")
	gt.S(t, buf.String()).Contains("memory")
}

func TestFromFallsBackToDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	replacement := logging.New("info", buf)
	logging.SetDefault(replacement)

	gt.Equal(t, logging.From(context.Background()), replacement)
}
