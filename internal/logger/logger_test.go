package logger_test

import (
	"bytes"
	"testing"

	"github.com/ostafen/hccspart/internal/logger"
	"github.com/stretchr/testify/require"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer

	log := logger.New(&buf, logger.WarnLevel)
	log.Debug("hidden")
	log.Infof("hidden %d", 1)
	log.Warnf("geometry %s", "1038/16/63")
	log.Error("failed")

	require.Equal(t, "[WARN] geometry 1038/16/63\n[ERROR] failed\n", buf.String())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, logger.DebugLevel, logger.ParseLevel("debug"))
	require.Equal(t, logger.WarnLevel, logger.ParseLevel("WARN"))
	require.Equal(t, logger.ErrorLevel, logger.ParseLevel("ERROR"))
	require.Equal(t, logger.InfoLevel, logger.ParseLevel("bogus"))
	require.Equal(t, "INFO", logger.InfoLevel.String())
}
