package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats field values for a locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
}

// NewFormatter returns a formatter for a BCP 47 locale. Unknown locales fall
// back to English.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Formatter{tag: tag, printer: message.NewPrinter(tag)}
}

func (f *Formatter) Locale() language.Tag { return f.tag }

// FormatNumber formats v with a decimal pattern such as "#,##0.00" or
// "0.#". The pattern controls grouping and the fraction digits; a trailing
// "%" formats v as a percentage.
func (f *Formatter) FormatNumber(v any, pattern string) (string, error) {
	n, err := toFloat(v)
	if err != nil {
		return "", err
	}
	if pattern == "" {
		return f.printer.Sprint(number.Decimal(n)), nil
	}
	percent := strings.HasSuffix(pattern, "%")
	pattern = strings.TrimSuffix(pattern, "%")
	var opts []number.Option
	if _, frac, ok := strings.Cut(pattern, "."); ok {
		minFrac := strings.Count(frac, "0")
		opts = append(opts, number.MinFractionDigits(minFrac), number.MaxFractionDigits(minFrac+strings.Count(frac, "#")))
	} else {
		opts = append(opts, number.MaxFractionDigits(0))
	}
	if !strings.Contains(pattern, ",") {
		opts = append(opts, number.NoSeparator())
	}
	if percent {
		return f.printer.Sprint(number.Percent(n, opts...)), nil
	}
	return f.printer.Sprint(number.Decimal(n, opts...)), nil
}

// FormatDate formats a time.Time or a date string with a Go time layout.
// Strings are parsed as RFC 3339 or as plain dates.
func (f *Formatter) FormatDate(v any, layout string) (string, error) {
	if layout == "" {
		layout = "2006-01-02"
	}
	switch t := v.(type) {
	case time.Time:
		return t.Format(layout), nil
	case string:
		for _, in := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if p, err := time.Parse(in, strings.TrimSpace(t)); err == nil {
				return p.Format(layout), nil
			}
		}
		return "", fmt.Errorf("unparsable date %q", t)
	}
	return "", fmt.Errorf("cannot format %T as date", v)
}

// FormatText formats any value for display.
func (f *Formatter) FormatText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// Sprintf formats a message in the formatter's locale.
func (f *Formatter) Sprintf(format string, args ...any) string {
	return f.printer.Sprintf(format, args...)
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("cannot format %T as number", v)
}

// ToFloat converts numeric values and numeric strings.
func ToFloat(v any) (float64, bool) {
	f, err := toFloat(v)
	return f, err == nil
}
