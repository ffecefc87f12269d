package jsonstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/idilsaglam/todo/internal/model"
)

func TestLoad_Missing(t *testing.T) {
	s := New(t.TempDir(), zerolog.Nop())
	assert.Equal(t, model.List{}, s.Load())
}

func TestLoad_Corrupted(t *testing.T) {
	for name, body := range map[string]string{
		"garbage":   "{{{",
		"object":    `{"id":"1"}`,
		"truncated": `[{"id":"1","title":"x"`,
		"empty":     "",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, dataFileName), []byte(body), 0o644))
			assert.Equal(t, model.List{}, New(dir, zerolog.Nop()).Load())
		})
	}
}

func TestLoad_Null(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, dataFileName), []byte("null"), 0o644))
	assert.Equal(t, model.List{}, New(dir, zerolog.Nop()).Load())
}

func TestSave_CreatesDirAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	s := New(dir, zerolog.Nop())
	require.NoError(t, s.Save(model.List{{ID: "1", Title: "first"}}))
	require.NoError(t, s.Save(model.List{{ID: "2", Title: "second", Completed: true}}))

	assert.Equal(t, model.List{{ID: "2", Title: "second", Completed: true}}, s.Load())
	_, err := os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, zerolog.Nop())
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 15).Draw(t, "n")
		l := make(model.List, n)
		for i := range l {
			l[i] = model.Todo{
				ID:        model.ID(rapid.StringMatching(`[a-z0-9-]{1,12}`).Draw(t, "id")),
				Title:     rapid.StringMatching(`[A-Za-z0-9 ,.!?"\\-]{1,30}`).Draw(t, "title"),
				Completed: rapid.Bool().Draw(t, "completed"),
			}
		}
		if err := s.Save(l); err != nil {
			t.Fatalf("save: %v", err)
		}
		got := s.Load()
		if len(got) != len(l) {
			t.Fatalf("len mismatch: %d vs %d", len(got), len(l))
		}
		for i := range l {
			if got[i] != l[i] {
				t.Fatalf("record %d: got %+v want %+v", i, got[i], l[i])
			}
		}
	})
}
