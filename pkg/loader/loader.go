package loader

import (
	"context"
)

type SourceType string

const (
	SourceTypeText SourceType = "text"
	SourceTypeCSV  SourceType = "csv"
	SourceTypeWeb  SourceType = "web"
)

// SourceFile represents a corpus input that can be loaded into text and
// split into passages for indexing. The actual content is retrieved via
// the associated FileLoader.
type SourceFile struct {
	ID          string
	Path        string
	Type        SourceType
	Loader      FileLoader
	Description string
}

// FileLoader retrieves the text content of a source file.
type FileLoader interface {
	GetFileText(ctx context.Context, file SourceFile) ([]byte, error)
}

// NewSourceFileParams defines the input parameters for the SourceFile
// constructors.
type NewSourceFileParams struct {
	ID     string
	Path   string
	Loader FileLoader
}

// NewTextFile creates a SourceFile for a plain text input.
func NewTextFile(params NewSourceFileParams) SourceFile {
	return SourceFile{
		ID:     params.ID,
		Path:   params.Path,
		Type:   SourceTypeText,
		Loader: params.Loader,
	}
}

// NewCSVFile creates a SourceFile for a CSV input. Each row is rendered
// into "header: value" text before splitting.
func NewCSVFile(params NewSourceFileParams) SourceFile {
	return SourceFile{
		ID:     params.ID,
		Path:   params.Path,
		Type:   SourceTypeCSV,
		Loader: params.Loader,
	}
}

// NewWebFile creates a SourceFile for a URL. The loader extracts the
// readable article text from the page.
func NewWebFile(params NewSourceFileParams) SourceFile {
	return SourceFile{
		ID:     params.ID,
		Path:   params.Path,
		Type:   SourceTypeWeb,
		Loader: params.Loader,
	}
}

// CacheKey identifies a source file for loader-level caching.
func CacheKey(file SourceFile) string {
	return file.ID + ":" + file.Path
}

// Document is a splitter output chunk, ready for embedding and indexing.
type Document struct {
	ID      string
	Source  string
	Content string
}
