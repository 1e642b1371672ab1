package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"pressroom/pkg/config"
)

const settle = 200 * time.Millisecond

// watchFilter matches file base names against the watch patterns.
type watchFilter []glob.Glob

func newWatchFilter(patterns []string) (watchFilter, error) {
	var f watchFilter
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("watch pattern %q: %w", p, err)
		}
		f = append(f, g)
	}
	return f, nil
}

func (f watchFilter) Match(path string) bool {
	name := filepath.Base(path)
	for _, g := range f {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// watchAndRun renders once and again after every burst of changes in the
// report's directory and the data directories. A change cancels a render
// still in progress.
func (o *renderOptions) watchAndRun(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) error {
	filter, err := newWatchFilter(o.patterns)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dirs := map[string]bool{filepath.Dir(path): true}
	files, err := parseData(o.data)
	if err != nil {
		return err
	}
	for _, p := range files {
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		dirs[filepath.Dir(p)] = true
	}
	for d := range dirs {
		if err := w.Add(d); err != nil {
			return err
		}
	}

	_, out := o.output(cfg, path)
	out, _ = filepath.Abs(out)

	runs := make(chan error, 1)
	var cancel context.CancelFunc = func() {}
	start := func() {
		cancel()
		var runCtx context.Context
		runCtx, cancel = context.WithCancel(ctx)
		go func() { runs <- o.run(runCtx, cfg, logger, path) }()
	}
	defer func() { cancel() }()

	start()
	running := true
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-runs:
			running = false
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("render failed", "err", err)
			}
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !filter.Match(ev.Name) || isOutput(ev.Name, out) {
				continue
			}
			logger.Debug("change", "file", ev.Name, "op", ev.Op)
			timer = time.After(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch", "err", err)
		case <-timer:
			timer = nil
			if running {
				cancel()
				<-runs
			}
			logger.Info("rendering again", "report", path)
			start()
			running = true
		}
	}
}

// isOutput reports whether name is the render's own output or lies in the
// png output directory.
func isOutput(name, out string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == out || filepath.Dir(abs) == out
}
