package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedWidth(size float64) MeasureFunc {
	return func(s string) (float64, error) {
		w, _, err := FixedMeasurer{}.Measure(s, Font{Size: size})
		return w, err
	}
}

func TestFixedMeasurer(t *testing.T) {
	w, h, err := FixedMeasurer{}.Measure("abcd", Font{Size: 10})
	require.NoError(t, err)
	assert.InDelta(t, 24, w, 1e-9)
	assert.InDelta(t, 12, h, 1e-9)
	assert.InDelta(t, 12, FixedMeasurer{}.LineHeight(Font{Size: 10}), 1e-9)

	// combining marks do not add width
	w, _, _ = FixedMeasurer{}.Measure("é", Font{Size: 10})
	assert.InDelta(t, 6, w, 1e-9)
}

func TestBreakLines(t *testing.T) {
	// 10pt fixed font: every grapheme is 6pt wide
	tests := []struct {
		name  string
		in    string
		width float64
		want  []string
	}{
		{"fits", "hello world", 100, []string{"hello world"}},
		{"wrap at space", "hello world", 40, []string{"hello", "world"}},
		{"hard break", "a\nb", 100, []string{"a", "b"}},
		{"long word", "abcdefghij", 30, []string{"abcde", "fghij"}},
		{"empty", "", 10, []string{""}},
		{"multi", "one two three four", 60, []string{"one two", "three four"}},
		{"split word keeps its space", "aaaaaaaaa b", 24, []string{"aaaa", "aaaa", "a b"}},
		{"split word then wrap", "aaaaaaaaaa bb", 24, []string{"aaaa", "aaaa", "aa", "bb"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BreakLines(tt.in, tt.width, fixedWidth(10))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGGMeasurerBuiltinFonts(t *testing.T) {
	m := NewGGMeasurer(nil, true)
	f := Font{Family: "Go", Size: 12}
	w1, h, err := m.Measure("hello", f)
	require.NoError(t, err)
	assert.Greater(t, w1, 0.0)
	assert.Greater(t, h, 0.0)

	w2, _, err := m.Measure("hello hello", f)
	require.NoError(t, err)
	assert.Greater(t, w2, w1)

	bold, _, err := m.Measure("hello", Font{Family: "Go", Size: 12, Bold: true})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, bold, w1)

	mono, _, err := m.Measure("iiii", Font{Family: "Go Mono", Size: 12})
	require.NoError(t, err)
	wide, _, err := m.Measure("mmmm", Font{Family: "Go Mono", Size: 12})
	require.NoError(t, err)
	assert.InDelta(t, mono, wide, 1e-6)
}

func TestGGMeasurerMissingFile(t *testing.T) {
	files := map[string]string{"custom": "/nonexistent/font.ttf"}

	strict := NewGGMeasurer(files, true)
	_, _, err := strict.Measure("x", Font{Family: "Custom", Size: 10})
	assert.ErrorIs(t, err, ErrFontUnavailable)

	lenient := NewGGMeasurer(files, false)
	w, _, err := lenient.Measure("x", Font{Family: "Custom", Size: 10})
	require.NoError(t, err)
	assert.Greater(t, w, 0.0)

	_, _, err = strict.Measure("x", Font{Family: "Go", Size: 0})
	assert.ErrorIs(t, err, ErrFontUnavailable)
}
