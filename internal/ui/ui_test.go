package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanel_FramesLines(t *testing.T) {
	SetColorForcing(false, true)
	SetTheme("classic")
	defer SetColorForcing(false, false)

	var buf bytes.Buffer
	Panel(&buf, []string{"Todos", C(fgGreen, "☑") + " Buy milk"})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "┌"))
	assert.True(t, strings.HasPrefix(lines[3], "└"))
	assert.Equal(t, visibleWidth(lines[1]), visibleWidth(lines[2]))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░  50%", ProgressBar(1, 2, 10))
	assert.Equal(t, "░░░░░   0%", ProgressBar(0, 0, 1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcdefg...", Truncate("abcdefghijklmnop", 10))
}

func TestThemes(t *testing.T) {
	defer SetTheme("classic")
	defer SetColorForcing(false, false)

	assert.True(t, SetTheme("mono"))
	assert.Equal(t, "[x]", Current().BoxChecked)
	assert.Equal(t, "plain", C(fgRed, "plain"))

	assert.True(t, SetTheme(" Neon "))
	assert.Equal(t, "◼", Current().BoxChecked)
	assert.False(t, SetTheme("whatever"))
	assert.Equal(t, "☑", Current().BoxChecked)
	assert.Equal(t, []string{"classic", "mono", "neon"}, ThemeNames())
}

func TestMessages(t *testing.T) {
	SetTheme(DefaultTheme)
	SetColorForcing(false, true)
	defer SetColorForcing(false, false)
	var buf bytes.Buffer
	OK(&buf, "added")
	Fail(&buf, "nope")
	Warn(&buf, "careful")
	assert.Equal(t, "✔ added\n✖ nope\n! careful\n", buf.String())
}
