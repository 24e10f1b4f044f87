// Package corpus builds immutable, versioned corpus snapshots and publishes
// the active one. A rebuild never touches a published snapshot: readers load
// the current snapshot once per request and keep a consistent view of chunks,
// vectors and index for as long as they hold it.
package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"learnquick/internal/domain"
	"learnquick/internal/embedding"
	"learnquick/internal/vectorstore/memory"
)

// Snapshot is one complete corpus build.
type Snapshot struct {
	ID        string
	Text      string
	Chunks    []domain.Chunk
	Vectors   [][]float32
	Index     *memory.Index
	Embedder  domain.Embedder
	CreatedAt time.Time
}

// ChunkCount returns the number of chunks in the snapshot.
func (s *Snapshot) ChunkCount() int { return len(s.Chunks) }

// Build embeds every chunk with a single provider call and indexes the result.
// Position i of the index corresponds to chunk i.
func Build(ctx context.Context, provider domain.Embedder, chunks []domain.Chunk) ([][]float32, *memory.Index, domain.Embedder, error) {
	if len(chunks) == 0 {
		return nil, nil, nil, fmt.Errorf("corpus: build: %w", domain.ErrEmptyCorpus)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	emb, err := embedding.ForCorpus(provider, texts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("corpus: fit embedder: %w", err)
	}
	vectors, err := emb.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("corpus: embed chunks: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil, nil, fmt.Errorf("corpus: embedder %s returned no vectors: %w", emb.Name(), domain.ErrEmptyCorpus)
	}
	if len(vectors) != len(chunks) {
		return nil, nil, nil, fmt.Errorf("corpus: embedder %s returned %d vectors for %d chunks", emb.Name(), len(vectors), len(chunks))
	}
	index, err := memory.Build(vectors)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("corpus: index: %w", err)
	}
	return vectors, index, emb, nil
}

// Store holds the active snapshot. The zero value is not usable; call NewStore.
type Store struct {
	provider domain.Embedder
	current  atomic.Pointer[Snapshot]
	logger   *slog.Logger
	now      func() time.Time
}

// NewStore creates an empty store that embeds with provider.
func NewStore(provider domain.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{provider: provider, logger: logger, now: time.Now}
}

// Rebuild builds a snapshot from pre-segmented chunks and publishes it.
// On failure the previously published snapshot stays active.
func (s *Store) Rebuild(ctx context.Context, text string, chunks []domain.Chunk) (*Snapshot, error) {
	start := s.now()
	vectors, index, emb, err := Build(ctx, s.provider, chunks)
	if err != nil {
		s.logger.Warn("corpus build failed", "chunks", len(chunks), "err", err)
		return nil, err
	}
	snap := &Snapshot{
		ID:        uuid.NewString(),
		Text:      text,
		Chunks:    chunks,
		Vectors:   vectors,
		Index:     index,
		Embedder:  emb,
		CreatedAt: s.now(),
	}
	prev := s.current.Swap(snap)
	attrs := []any{"snapshot", snap.ID, "chunks", len(chunks), "dim", index.Dimension(), "took", s.now().Sub(start)}
	if prev != nil {
		attrs = append(attrs, "replaced", prev.ID)
	}
	s.logger.Info("corpus published", attrs...)
	return snap, nil
}

// Current returns the active snapshot or ErrNoCorpus.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, domain.ErrNoCorpus
	}
	return snap, nil
}
