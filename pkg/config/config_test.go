package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestPredefinedSizes(t *testing.T) {
	c := Default()
	sizes := c.PredefinedSizes()
	assert.Equal(t, 12.0, sizes[3])
	for i := 1; i < len(sizes); i++ {
		assert.Greater(t, sizes[i], sizes[i-1])
	}
}

func TestMissingFactorIs100(t *testing.T) {
	c := Default()
	delete(c.Fonts.SizeFactors, "large")
	assert.Equal(t, 100.0, c.FontSizeFactor("large"))
}

func TestParseOverlay(t *testing.T) {
	c := Default()
	err := c.Parse(`
[fonts]
default_size = 10

[page]
paper = "letter"
landscape = true
`)
	require.NoError(t, err)
	assert.Equal(t, 10.0, c.Fonts.DefaultSize)
	assert.Equal(t, 5, c.Layout.LayoutWeight, "untouched sections keep defaults")

	ps, err := c.PaperSize()
	require.NoError(t, err)
	assert.Equal(t, 792.0, ps.Width)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "pressroom.toml")
	require.NoError(t, os.WriteFile(p, []byte("[fonts]\nbogus = 1\n"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestLoadInvalidPaper(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "pressroom.toml")
	require.NoError(t, os.WriteFile(p, []byte("[page]\npaper = \"B7\"\n"), 0o644))
	_, err := Load(p)
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	c := Default()
	d := c.Clone()
	d.Fonts.SizeFactors["medium"] = 50
	d.Fonts.Files["go"] = "/tmp/go.ttf"
	assert.Equal(t, 100.0, c.FontSizeFactor("medium"))
	_, ok := c.FontFile("go")
	assert.False(t, ok)
}

func TestSlogLevel(t *testing.T) {
	c := Default()
	c.Log.Level = "debug"
	assert.Equal(t, slog.LevelDebug, c.SlogLevel())
	c.Log.Level = "loud"
	assert.Equal(t, slog.LevelInfo, c.SlogLevel())
}
