package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/golangast/popcorn/internal/config"
)

func TestNewLevels(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     config.LoggingConfig
		verbose bool
		want    zapcore.Level
	}{
		{"default", config.LoggingConfig{Format: "json"}, false, zapcore.InfoLevel},
		{"warn", config.LoggingConfig{Level: "warn", Format: "console"}, false, zapcore.WarnLevel},
		{"verbose overrides", config.LoggingConfig{Level: "error", Format: "json"}, true, zapcore.DebugLevel},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.cfg, tc.verbose)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tc.want))
			if tc.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tc.want-1))
			}
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "chatty", Format: "json"}, false)
	assert.Error(t, err)
}
