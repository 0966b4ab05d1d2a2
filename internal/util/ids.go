package util

import gonanoid "github.com/matoous/go-nanoid/v2"

// NewID returns a short URL-safe identifier for passages and ingest jobs.
func NewID() string {
	return gonanoid.Must(12)
}
