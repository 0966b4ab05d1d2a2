// Package store persists the passage index and retrieves evidence by
// vector similarity.
package store

import (
	"context"
	"errors"
)

// ErrNotInitialized is returned when a retrieval is attempted before the
// index has been built or loaded.
var ErrNotInitialized = errors.New("index not initialized: build or load it before querying")

// Passage is an indexed corpus record.
type Passage struct {
	ID      string
	Source  string
	Content string
}

// PassageStore is the persistence contract for the passage index.
// Embeddings are computed by the caller; the store only persists and
// searches them.
type PassageStore interface {
	// IndexPassages persists passages with their embeddings. The two
	// slices must have equal length.
	IndexPassages(ctx context.Context, passages []Passage, embeddings [][]float32) error
	// Search returns the k passages nearest to the query embedding by
	// cosine distance.
	Search(ctx context.Context, embedding []float32, k int) ([]Passage, error)
	// Count reports the number of indexed passages.
	Count(ctx context.Context) (int64, error)
	// Sources lists distinct source IDs with their passage counts.
	Sources(ctx context.Context) (map[string]int64, error)
	// DeleteSource removes all passages of one source and reports how
	// many were removed.
	DeleteSource(ctx context.Context, source string) (int64, error)
	// Clear removes the whole index.
	Clear(ctx context.Context) error
}
