package loader

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/wayfind-ai/wayfind/internal/util"
)

// TokenSplitter splits loaded text into token-bounded chunks. Paragraph
// boundaries are respected where possible; a paragraph larger than the
// chunk size is cut at token windows.
type TokenSplitter struct {
	enc          *tiktoken.Tiktoken
	chunkTokens  int
	chunkOverlap int
}

// TokenSplitterParams configures a TokenSplitter. ChunkTokens defaults to
// 500, ChunkOverlap to 0.
type TokenSplitterParams struct {
	ChunkTokens  int
	ChunkOverlap int
}

// NewTokenSplitter builds a splitter on the o200k_base encoding.
func NewTokenSplitter(params TokenSplitterParams) (*TokenSplitter, error) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to load token encoding: %w", err)
	}
	chunkTokens := params.ChunkTokens
	if chunkTokens <= 0 {
		chunkTokens = 500
	}
	chunkOverlap := params.ChunkOverlap
	if chunkOverlap < 0 || chunkOverlap >= chunkTokens {
		chunkOverlap = 0
	}
	return &TokenSplitter{
		enc:          enc,
		chunkTokens:  chunkTokens,
		chunkOverlap: chunkOverlap,
	}, nil
}

// CountTokens returns the token count of the given text.
func (s *TokenSplitter) CountTokens(text string) int {
	return len(s.enc.Encode(text, nil, nil))
}

// Split breaks text into chunks of at most the configured token size.
func (s *TokenSplitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, current.String())
		current.Reset()
		currentTokens = 0
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		paraTokens := s.CountTokens(para)

		if paraTokens > s.chunkTokens {
			flush()
			chunks = append(chunks, s.splitByWindow(para)...)
			continue
		}

		if currentTokens > 0 && currentTokens+paraTokens > s.chunkTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}
	flush()

	return chunks
}

// SplitDocument splits loaded text into indexable documents carrying the
// source file's ID.
func (s *TokenSplitter) SplitDocument(file SourceFile, text string) []Document {
	chunks := s.Split(text)
	docs := make([]Document, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, Document{
			ID:      util.NewID(),
			Source:  file.ID,
			Content: chunk,
		})
	}
	return docs
}

// splitByWindow cuts oversized text at raw token windows, applying the
// configured overlap between consecutive windows.
func (s *TokenSplitter) splitByWindow(text string) []string {
	tokens := s.enc.Encode(text, nil, nil)
	step := s.chunkTokens - s.chunkOverlap

	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := start + s.chunkTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := strings.TrimSpace(s.enc.Decode(tokens[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
