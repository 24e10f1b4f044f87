package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"learnquick/internal/corpus"
	"learnquick/internal/domain"
)

// ParagraphSeparator joins retrieved chunks for question answering.
const ParagraphSeparator = "\n\n"

// Hit is one retrieved chunk with its squared L2 distance to the query.
type Hit struct {
	Chunk    domain.Chunk
	Distance float32
}

// Search embeds query as a one-element batch with the snapshot's embedder and
// returns the topK nearest chunks, nearest first. topK is clamped to the index size.
// The snapshot is only read.
func Search(ctx context.Context, snap *corpus.Snapshot, query string, topK int) ([]Hit, error) {
	if snap == nil {
		return nil, domain.ErrNoCorpus
	}
	if topK <= 0 {
		return nil, fmt.Errorf("retrieval: top_k must be positive, got %d", topK)
	}
	vecs, err := snap.Embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, errors.New("retrieval: embedder returned no query vector")
	}
	dists, ids, err := snap.Index.Search(vecs, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval: search: %w", err)
	}
	hits := make([]Hit, len(ids[0]))
	for r, i := range ids[0] {
		hits[r] = Hit{Chunk: snap.Chunks[i], Distance: dists[0][r]}
	}
	return hits, nil
}

// Retrieve returns the topK nearest chunk texts in rank order joined by sep.
func Retrieve(ctx context.Context, snap *corpus.Snapshot, query string, topK int, sep string) (string, error) {
	hits, err := Search(ctx, snap, query, topK)
	if err != nil {
		return "", err
	}
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}
	return strings.Join(texts, sep), nil
}
