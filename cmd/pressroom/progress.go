package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"pressroom/pkg/state"
)

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progressBar redraws one status line, at most every interval.
type progressBar struct {
	w        io.Writer
	percent  func(state.ProgressEvent) float64
	interval time.Duration
	last     time.Time
	drawn    bool
}

func newProgressBar(w io.Writer, percent func(state.ProgressEvent) float64) *progressBar {
	return &progressBar{w: w, percent: percent, interval: 100 * time.Millisecond}
}

func (b *progressBar) notifier() *state.Notifier {
	n := &state.Notifier{}
	n.SubscribeAll(b.update)
	return n
}

func (b *progressBar) update(ev state.ProgressEvent) {
	now := time.Now()
	if b.drawn && now.Sub(b.last) < b.interval {
		return
	}
	b.last = now
	b.drawn = true
	fmt.Fprintf(b.w, "\r%s", renderBar(ev, b.percent(ev), 30))
}

func (b *progressBar) done() {
	if b.drawn {
		fmt.Fprintln(b.w)
	}
}

func renderBar(ev state.ProgressEvent, pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = min(max(filled, 0), width)
	line := fmt.Sprintf("[%s%s] %5.1f%% %-20s", strings.Repeat("#", filled), strings.Repeat(".", width-filled), pct, ev.Activity)
	if ev.Page > 0 {
		line += fmt.Sprintf(" page %d", ev.Page)
		if ev.TotalPages > 0 {
			line += fmt.Sprintf("/%d", ev.TotalPages)
		}
	}
	return line
}
