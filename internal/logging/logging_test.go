package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "todo.log")
	log, closer, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	log.Debug().Str("todo_id", "abc").Msg("created todo")
	log.Trace().Msg("hidden")
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"todo_id":"abc"`)
	assert.Contains(t, string(b), `"time":`)
	assert.NotContains(t, string(b), "hidden")
}

func TestNew_Levels(t *testing.T) {
	log, _, err := New(Options{Level: "WARN", File: filepath.Join(t.TempDir(), "x.log")})
	require.NoError(t, err)
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())

	_, _, err = New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew_EmptyFileDiscards(t *testing.T) {
	log, closer, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
	assert.NoError(t, closer.Close())
}

func TestNew_LeavesGlobalsAlone(t *testing.T) {
	before := zerolog.TimestampFieldName
	for range 2 {
		_, closer, err := New(Options{Level: "info", File: filepath.Join(t.TempDir(), "g.log")})
		require.NoError(t, err)
		require.NoError(t, closer.Close())
	}
	assert.Equal(t, before, zerolog.TimestampFieldName)
	assert.Equal(t, "time", zerolog.TimestampFieldName)
}
