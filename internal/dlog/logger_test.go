package dlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesLevelAndMessage(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)
	l.Info("starting node", "chainId", 31337)

	out := buf.String()
	require.Contains(t, out, "INFO")
	require.Contains(t, out, "starting node")
	require.Contains(t, out, "chainId=31337")
}

func TestLoggerFiltersBelowMinLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.Debug("should not appear")
	l.Info("should not appear either")
	require.Empty(t, buf.String())

	l.Warn("this appears")
	require.Contains(t, buf.String(), "this appears")
}

func TestWithAttachesPersistentAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo).With("component", "miner")
	l.Info("mined block", "number", 1)
	require.True(t, strings.Contains(buf.String(), "component=miner"))
}

func TestCritAttachesStack(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelInfo)
	l.Crit("fatal trie corruption")
	require.Contains(t, buf.String(), "CRIT")
	require.Contains(t, buf.String(), "stack=")
}
