package domain

import "errors"

var (
	// ErrEmptyCorpus is returned when there is nothing to embed.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrNoCorpus is returned when a query is issued before any successful build.
	ErrNoCorpus = errors.New("no corpus built")
	// ErrEmptyIndex is returned when searching an index with no vectors.
	ErrEmptyIndex = errors.New("empty index")
	// ErrInvalidChunking is returned for chunk sizes that would never advance.
	ErrInvalidChunking = errors.New("invalid chunking parameters")
	// ErrGenerationService wraps transport or auth failures of the generation service.
	ErrGenerationService = errors.New("generation service failure")
	// ErrGenerationTimeout is returned when a generation call exceeds its deadline.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrUnsupportedFormat is returned by extractors for unknown file types.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)
