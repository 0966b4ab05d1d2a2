// Package io loads source files from the local filesystem.
package io

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/wayfind-ai/wayfind/pkg/loader"
)

// IOFileLoader loads files directly from the local filesystem with caching.
type IOFileLoader struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewIOFileLoader creates a new filesystem-based file loader.
func NewIOFileLoader() *IOFileLoader {
	return &IOFileLoader{
		cache: make(map[string][]byte),
	}
}

// GetFileText reads the file content from the filesystem. Results are cached.
func (l *IOFileLoader) GetFileText(_ context.Context, file loader.SourceFile) ([]byte, error) {
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

		content, err := os.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
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
