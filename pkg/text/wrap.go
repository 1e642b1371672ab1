package text

import (
	"strings"

	"github.com/rivo/uniseg"
)

// MeasureFunc returns the width of a string.
type MeasureFunc func(s string) (float64, error)

// BreakLines wraps s into lines no wider than maxWidth, breaking at Unicode
// line break opportunities. Mandatory breaks always start a new line. A word
// wider than maxWidth is split between grapheme clusters. Trailing spaces
// are dropped from every line.
func BreakLines(s string, maxWidth float64, measure MeasureFunc) ([]string, error) {
	var lines []string
	var cur strings.Builder
	flush := func() {
		lines = append(lines, strings.TrimRight(cur.String(), " \t\r\n"))
		cur.Reset()
	}

	state := -1
	rest := s
	for len(rest) > 0 {
		var seg string
		var mustBreak bool
		seg, rest, mustBreak, state = uniseg.FirstLineSegmentInString(rest, state)

		w, err := measure(strings.TrimRight(cur.String()+seg, " \t\r\n"))
		if err != nil {
			return nil, err
		}
		if w > maxWidth && cur.Len() > 0 {
			flush()
			if w, err = measure(strings.TrimRight(seg, " \t\r\n")); err != nil {
				return nil, err
			}
		}
		if w > maxWidth {
			word := strings.TrimRight(seg, " \t\r\n")
			parts, err := splitGraphemes(word, maxWidth, measure)
			if err != nil {
				return nil, err
			}
			lines = append(lines, parts[:len(parts)-1]...)
			cur.WriteString(parts[len(parts)-1])
			cur.WriteString(seg[len(word):])
		} else {
			cur.WriteString(seg)
		}
		if mustBreak && rest != "" {
			flush()
		}
	}
	if cur.Len() > 0 || len(lines) == 0 {
		flush()
	}
	return lines, nil
}

func splitGraphemes(word string, maxWidth float64, measure MeasureFunc) ([]string, error) {
	var parts []string
	var cur string
	g := uniseg.NewGraphemes(word)
	for g.Next() {
		c := g.Str()
		w, err := measure(cur + c)
		if err != nil {
			return nil, err
		}
		if w > maxWidth && cur != "" {
			parts = append(parts, cur)
			cur = ""
		}
		cur += c
	}
	return append(parts, cur), nil
}
