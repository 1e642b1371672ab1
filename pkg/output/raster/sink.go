package raster

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"

	"pressroom/pkg/layout"
)

// Sink writes every page as a PNG file into Dir. Pages are painted in
// order and encoded in the background; Close waits for the encoders.
type Sink struct {
	Dir      string
	Pattern  string
	Renderer *Renderer

	once    sync.Once
	group   *errgroup.Group
	mu      sync.Mutex
	written []string
}

// NewSink writes files named page-001.png and so on.
func NewSink(dir string, r *Renderer) *Sink {
	return &Sink{Dir: dir, Pattern: "page-%03d.png", Renderer: r}
}

func (s *Sink) init() {
	s.once.Do(func() {
		s.group = &errgroup.Group{}
		s.group.SetLimit(4)
	})
}

func (s *Sink) ProcessPage(ctx context.Context, page *layout.LogicalPageBox, _ int) error {
	s.init()
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	img := s.Renderer.Render(page)
	path := filepath.Join(s.Dir, fmt.Sprintf(s.Pattern, page.Number))
	s.group.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := gg.SavePNG(path, img); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		s.mu.Lock()
		s.written = append(s.written, path)
		s.mu.Unlock()
		return nil
	})
	return nil
}

func (s *Sink) Close() error {
	s.init()
	return s.group.Wait()
}

// Discard waits for pending writes and removes the files written so far.
func (s *Sink) Discard() {
	s.init()
	_ = s.group.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.written {
		_ = os.Remove(p)
	}
	s.written = nil
}

// Files returns the paths written so far.
func (s *Sink) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}
