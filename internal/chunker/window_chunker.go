package chunker

import (
	"fmt"
	"regexp"

	"learnquick/internal/domain"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses every run of whitespace into a single space.
func CleanText(text string) string {
	return whitespaceRe.ReplaceAllString(text, " ")
}

// WindowChunker splits text into fixed-size character windows that overlap.
type WindowChunker struct {
	chunkSize int
	overlap   int
}

// NewWindowChunker validates the window geometry. An overlap that is not
// strictly smaller than the chunk size would never advance.
func NewWindowChunker(chunkSize, overlap int) (*WindowChunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunker: chunk size %d: %w", chunkSize, domain.ErrInvalidChunking)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("chunker: overlap %d with chunk size %d: %w", overlap, chunkSize, domain.ErrInvalidChunking)
	}
	return &WindowChunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Segment is a convenience wrapper around NewWindowChunker and Chunk.
func Segment(text string, chunkSize, overlap int) ([]domain.Chunk, error) {
	c, err := NewWindowChunker(chunkSize, overlap)
	if err != nil {
		return nil, err
	}
	return c.Chunk(text), nil
}

// Chunk emits text[start:start+chunkSize] and advances start by
// chunkSize-overlap while start is inside the text. Offsets count runes.
func (c *WindowChunker) Chunk(text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.chunkSize - c.overlap
	chunks := make([]domain.Chunk, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			ID:          len(chunks),
			Text:        string(runes[start:end]),
			StartOffset: start,
			EndOffset:   end,
		})
	}
	return chunks
}

// ChunkSize returns the configured window width.
func (c *WindowChunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap between consecutive windows.
func (c *WindowChunker) Overlap() int { return c.overlap }
