// Package web loads content from web URLs and extracts readable text.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/sync/singleflight"

	"github.com/wayfind-ai/wayfind/pkg/loader"
)

// WebFileLoader fetches URLs and extracts the main article text from HTML
// pages using readability. Non-HTML responses are returned as-is.
type WebFileLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewWebFileLoader creates a new web loader.
func NewWebFileLoader() *WebFileLoader {
	return &WebFileLoader{
		cache: make(map[string][]byte),
	}
}

// GetFileText fetches a URL and extracts readable text content.
func (l *WebFileLoader) GetFileText(ctx context.Context, file loader.SourceFile) ([]byte, error) {
	key := loader.CacheKey(file)

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[key]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		var content []byte
		contentType := resp.Header.Get("Content-Type")
		if strings.Contains(contentType, "text/html") {
			pageURL, err := url.Parse(file.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to parse url: %w", err)
			}
			article, err := readability.FromReader(resp.Body, pageURL)
			if err != nil {
				return nil, fmt.Errorf("failed to parse html: %w", err)
			}
			var builder strings.Builder
			if err := article.RenderText(&builder); err != nil {
				return nil, fmt.Errorf("failed to render article text: %w", err)
			}
			content = []byte(builder.String())
		} else {
			content, err = io.ReadAll(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("failed to read response: %w", err)
			}
		}

		l.cacheMu.Lock()
		l.cache[key] = content
		l.cacheMu.Unlock()

		return content, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
