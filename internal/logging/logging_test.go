package logging_test

import (
	"bytes"
	"testing"

	"github.com/Viet-ph/redis-ae/internal/logging"
	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]logiface.Level{
		"trace":    logiface.LevelTrace,
		"debug":    logiface.LevelDebug,
		"info":     logiface.LevelInformational,
		"INFO":     logiface.LevelInformational,
		"notice":   logiface.LevelNotice,
		"warning":  logiface.LevelWarning,
		"warn":     logiface.LevelWarning,
		"err":      logiface.LevelError,
		"error":    logiface.LevelError,
		"disabled": logiface.LevelDisabled,
	} {
		got, err := logging.ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := logging.ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, logiface.LevelWarning)

	logger.Info().Log("hidden")
	assert.Empty(t, buf.String())

	logger.Warning().Str("fd", "7").Log("shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"fd":"7"`)
}
