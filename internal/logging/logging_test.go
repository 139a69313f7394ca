package logging

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json output honours level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(Config{Level: "info", Format: FormatJSON}, &buf)

		l.Debug().Msg("hidden")
		l.Info().Str("category", "trending").Msg("shown")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"category":"trending"`)
		assert.Contains(t, out, `"message":"shown"`)
	})

	t.Run("invalid level falls back to warn", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(Config{Level: "chatty", Format: FormatJSON}, &buf)
		assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
	})
}

func TestNewLoggerWithPath(t *testing.T) {
	t.Run("stderr by default", func(t *testing.T) {
		res := NewLoggerWithPath(Config{Level: "info"})
		assert.False(t, res.UsingFile)
		assert.False(t, res.FallbackUsed)
		require.NoError(t, res.Close())
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ghtrend.log")
		res := NewLoggerWithPath(Config{Level: "info", Output: OutputFile, File: path})
		require.True(t, res.UsingFile)
		assert.Equal(t, path, res.FilePath)
		require.NoError(t, res.Close())
	})

	t.Run("unwritable file falls back", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "dir", "ghtrend.log")
		res := NewLoggerWithPath(Config{Level: "info", Output: OutputFile, File: path})
		assert.False(t, res.UsingFile)
		assert.True(t, res.FallbackUsed)
		assert.NotEmpty(t, res.FallbackReason)
	})
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := ComponentLogger(NewLogger(Config{Level: "debug", Format: FormatJSON}, &buf), "fetch")
	ctx := l.WithContext(context.Background())

	FromContext(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"fetch"`)

	// Empty contexts yield a usable, silent logger.
	FromContext(context.Background()).Info().Msg("nowhere")
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))

	id := GetOrGenerateTraceID(ctx)
	_, err := ulid.Parse(id)
	require.NoError(t, err)

	ctx = ContextWithTraceID(ctx, id)
	assert.Equal(t, id, GetOrGenerateTraceID(ctx))
}
