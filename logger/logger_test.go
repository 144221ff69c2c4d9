package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, WarnLevel, ParseLevel(" warn "))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
}

func TestGetBeforeInitIsUsable(t *testing.T) {
	require.NotNil(t, Get())
	Get().Info("no-op logger accepts entries")
}

func TestSetRoutesEntries(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	Get().Info("profile saved", zap.String("user_id", "u1"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "profile saved", entries[0].Message)
	assert.Equal(t, "u1", entries[0].ContextMap()["user_id"])
}
