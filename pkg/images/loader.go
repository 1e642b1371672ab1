// Package images loads the pictures and barcodes placed in reports.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/h2non/filetype"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"

	"pressroom/pkg/resource"
)

// ErrNotImage is returned for content that is not a supported image.
var ErrNotImage = errors.New("not an image")

// Loader loads and caches images by URI. Concurrent loads of the same URI
// share one fetch.
type Loader struct {
	fetcher resource.Fetcher
	group   singleflight.Group

	mu    sync.RWMutex
	cache map[string]image.Image
}

func NewLoader(f resource.Fetcher) *Loader {
	return &Loader{fetcher: f, cache: make(map[string]image.Image)}
}

// Load returns the image at uri.
func (l *Loader) Load(ctx context.Context, uri string) (image.Image, error) {
	l.mu.RLock()
	img, ok := l.cache[uri]
	l.mu.RUnlock()
	if ok {
		return img, nil
	}

	v, err, _ := l.group.Do(uri, func() (any, error) {
		body, _, err := l.fetcher.Fetch(ctx, uri)
		if err != nil {
			return nil, err
		}
		img, _, err := Decode(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", uri, err)
		}
		l.mu.Lock()
		l.cache[uri] = img
		l.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Dimensions returns the pixel size of the image at uri.
func (l *Loader) Dimensions(ctx context.Context, uri string) (width, height int, err error) {
	img, err := l.Load(ctx, uri)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Decode sniffs the content type and decodes the image. It returns the
// detected MIME type.
func Decode(data []byte) (image.Image, string, error) {
	kind, err := filetype.Match(data)
	if err != nil || !filetype.IsImage(data) {
		return nil, "", ErrNotImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, kind.MIME.Value, fmt.Errorf("%w: %s: %v", ErrNotImage, kind.MIME.Value, err)
	}
	return img, kind.MIME.Value, nil
}

// Scale resizes img to w×h pixels. A zero dimension keeps the aspect ratio.
func Scale(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if (w == b.Dx() || w == 0) && (h == b.Dy() || h == 0) {
		return img
	}
	return resize.Resize(uint(w), uint(h), img, resize.Bilinear)
}
