package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level  string
		format string
		debug  bool
		want   zapcore.Level
	}{
		{"", "json", false, zapcore.InfoLevel},
		{"warn", "json", false, zapcore.WarnLevel},
		{"ERROR", "console", false, zapcore.ErrorLevel},
		{"warn", "json", true, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		logger, err := New(tt.level, tt.format, tt.debug)
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(tt.want), "level %q", tt.level)
		if tt.want > zapcore.DebugLevel {
			assert.False(t, logger.Core().Enabled(tt.want-1), "level %q", tt.level)
		}
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New("loud", "json", false)
	assert.Error(t, err)
}
