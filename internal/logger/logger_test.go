package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"DEBUG", DEBUG},
		{"debug", DEBUG},
		{"WARN", WARN},
		{"warning", WARN},
		{"ERROR", ERROR},
		{"", INFO},
		{"loud", INFO},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLevelFilteringAndFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: INFO, Output: &buf})
	require.NoError(t, err)

	l.Debug("hidden")
	l.WithFields(F("op", "list_courses")).Info("fetched", F("count", 3))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "logger_test.go")
	assert.Contains(t, out, "fetched | op=list_courses count=3")
}

func TestWithFieldsDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: DEBUG, Output: &buf})
	require.NoError(t, err)

	child := l.WithFields(F("course", "c1"))
	_ = child.WithFields(F("card", "k1"))
	l.Info("parent")

	assert.NotContains(t, buf.String(), "course=")
}

func TestRotationBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "edugo.log")

	l, err := New(Config{Level: DEBUG, FilePath: path, MaxSize: 64, MaxBackups: 2})
	require.NoError(t, err)
	defer l.Close()

	for i := 0; i < 5; i++ {
		l.Info(strings.Repeat("x", 40))
	}

	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "expected a rotated backup")
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "backups beyond MaxBackups must not exist")
}

func TestNilGlobalLoggerIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		var l *Logger
		l.Info("nothing")
		assert.Nil(t, l.WithFields(F("a", 1)))
		assert.NoError(t, l.Close())
	})
}
