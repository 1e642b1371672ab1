// Package resource loads the external resources a report references:
// images and data files given as URLs, data URIs or paths.
package resource

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	stdnet "pressroom/std/net"
)

// Fetcher retrieves resources by URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (body []byte, contentType string, err error)
}

// DefaultFetcher fetches resources over HTTP/HTTPS, from data URIs and from
// the file system. Relative references resolve against the base, which is
// either a URL or a directory.
type DefaultFetcher struct {
	base string
}

// NewFetcher creates a DefaultFetcher with the given base.
func NewFetcher(base string) *DefaultFetcher {
	return &DefaultFetcher{base: base}
}

// Fetch retrieves the resource at the given URI.
func (f *DefaultFetcher) Fetch(ctx context.Context, uri string) ([]byte, string, error) {
	switch {
	case IsDataURI(uri):
		return DecodeDataURI(uri)
	case stdnet.IsNetworkURL(uri):
		return stdnet.Fetch(ctx, nil, uri)
	case stdnet.IsNetworkURL(f.base):
		return stdnet.Fetch(ctx, nil, stdnet.ResolveURL(f.base, uri))
	}
	path := strings.TrimPrefix(uri, "file://")
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, "", err
	}
	if !filepath.IsAbs(path) && f.base != "" {
		path = filepath.Join(f.base, path)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", uri, err)
	}
	return body, "", nil
}

// IsDataURI reports whether s is a data: URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURI returns the payload and media type of a data URI.
func DecodeDataURI(uri string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if isBase64 {
		body, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decoding data URI: %w", err)
		}
		return body, mediaType, nil
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decoding data URI: %w", err)
	}
	return []byte(text), mediaType, nil
}
