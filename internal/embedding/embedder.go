package embedding

import "learnquick/internal/domain"

// Embedder converts a batch of texts into fixed-dimension vectors.
type Embedder = domain.Embedder

// FittableEmbedder must be fitted to a corpus before it can embed.
// Each fit yields an independent embedder, so a corpus snapshot keeps its own vector space.
type FittableEmbedder = domain.FittableEmbedder

// ForCorpus returns the embedder to use for a corpus: fitted when the
// provider requires it, the provider itself otherwise.
func ForCorpus(e Embedder, corpus []string) (Embedder, error) {
	if f, ok := e.(FittableEmbedder); ok {
		return f.Fit(corpus)
	}
	return e, nil
}
