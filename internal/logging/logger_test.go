package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger, err := New("debug", "json")
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Debug("debug enabled")
}

func TestNew_ConsoleFormat(t *testing.T) {
	logger, err := New("info", "console")
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)
}
