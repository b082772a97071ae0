package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLogger_GetLogsNewestFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	l := NewIsolatedLogger(path, false)

	l.Info("CHAT", "first", nil)
	l.Warn("UPLOAD", "second", map[string]interface{}{"file": "a.exe"})
	l.Debug("CHAT", "filtered by level", nil)
	require.NoError(t, l.Sync())

	entries, err := l.GetLogs(LogQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Message)
	assert.Equal(t, "UPLOAD", entries[0].Module)
	assert.Equal(t, "first", entries[1].Message)
	assert.NotEmpty(t, entries[0].Id)

	warns, err := l.GetLogs(LogQuery{Level: "warn", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, warns, 1)

	chat, err := l.GetLogs(LogQuery{Module: "chat"})
	require.NoError(t, err)
	require.Len(t, chat, 1)
	assert.Equal(t, "first", chat[0].Message)

	paged, err := l.GetLogs(LogQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "first", paged[0].Message)
}

func TestGetLogs_MissingFile(t *testing.T) {
	l := NewIsolatedLogger(filepath.Join(t.TempDir(), "never-written.log"), false)

	entries, err := l.GetLogs(LogQuery{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
