package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel(""))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}

func TestNewWithOutputWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "info", "")

	l.WithField("session_id", "s-1").Info("turn complete")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "turn complete", line["msg"])
	assert.Equal(t, "s-1", line["session_id"])
}

func TestNewWithOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput(&buf, "warn", "text")

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
