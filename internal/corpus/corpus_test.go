package corpus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"learnquick/internal/domain"
	"learnquick/internal/embedding/tfidf"
)

// --- mocks ---

type countingEmbedder struct {
	calls   int
	batches [][]string
	empty   bool
	err     error
}

func (m *countingEmbedder) Name() string { return "counting" }

func (m *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	m.batches = append(m.batches, texts)
	if m.err != nil {
		return nil, m.err
	}
	if m.empty {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), float32(i)}
	}
	return out, nil
}

func chunksOf(texts ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(texts))
	offset := 0
	for i, t := range texts {
		out[i] = domain.Chunk{ID: i, Text: t, StartOffset: offset, EndOffset: offset + len(t)}
		offset += len(t)
	}
	return out
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// --- tests ---

func TestBuild_SingleBatchedCall(t *testing.T) {
	emb := &countingEmbedder{}
	chunks := chunksOf("cells", "tissues", "organs", "systems")
	vectors, index, used, err := Build(context.Background(), emb, chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", emb.calls)
	}
	if len(emb.batches[0]) != len(chunks) {
		t.Errorf("expected full batch of %d, got %d", len(chunks), len(emb.batches[0]))
	}
	if index.Size() != len(chunks) || len(vectors) != len(chunks) {
		t.Errorf("index size %d, vectors %d, chunks %d", index.Size(), len(vectors), len(chunks))
	}
	if used != domain.Embedder(emb) {
		t.Error("non-fittable provider should be used as is")
	}
	// position i of the index is chunk i
	_, ids, err := index.Search([][]float32{vectors[2]}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if ids[0][0] != 2 {
		t.Errorf("vector of chunk 2 found at position %d", ids[0][0])
	}
}

func TestBuild_EmptyChunks(t *testing.T) {
	emb := &countingEmbedder{}
	_, _, _, err := Build(context.Background(), emb, nil)
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	if emb.calls != 0 {
		t.Errorf("provider must not be called for an empty corpus")
	}
}

func TestBuild_NoVectors(t *testing.T) {
	_, _, _, err := Build(context.Background(), &countingEmbedder{empty: true}, chunksOf("x"))
	if !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}

func TestBuild_ProviderError(t *testing.T) {
	boom := errors.New("boom")
	_, _, _, err := Build(context.Background(), &countingEmbedder{err: boom}, chunksOf("x"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestBuild_FitsTFIDFPerCorpus(t *testing.T) {
	base := tfidf.NewEmbedder()
	_, index, used, err := Build(context.Background(), base, chunksOf("glucose metabolism", "krebs cycle"))
	if err != nil {
		t.Fatal(err)
	}
	if used == domain.Embedder(base) {
		t.Error("expected a fitted embedder distinct from the base provider")
	}
	if index.Dimension() != 4 {
		t.Errorf("expected vocabulary of 4 terms, got %d", index.Dimension())
	}
}

func TestStore_NoCorpus(t *testing.T) {
	s := NewStore(&countingEmbedder{}, quietLogger())
	if _, err := s.Current(); !errors.Is(err, domain.ErrNoCorpus) {
		t.Fatalf("expected ErrNoCorpus, got %v", err)
	}
}

func TestStore_RebuildPublishesNewSnapshot(t *testing.T) {
	s := NewStore(&countingEmbedder{}, quietLogger())
	first, err := s.Rebuild(context.Background(), "ab", chunksOf("a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	pinned, _ := s.Current()
	second, err := s.Rebuild(context.Background(), "xyz", chunksOf("x", "y", "z"))
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID {
		t.Error("snapshots share an ID")
	}
	if pinned != first || pinned.ChunkCount() != 2 || pinned.Index.Size() != 2 {
		t.Error("pinned snapshot changed after rebuild")
	}
	cur, _ := s.Current()
	if cur != second || cur.Text != "xyz" {
		t.Error("current snapshot is not the latest build")
	}
}

func TestStore_FailedRebuildKeepsPrevious(t *testing.T) {
	emb := &countingEmbedder{}
	s := NewStore(emb, quietLogger())
	first, err := s.Rebuild(context.Background(), "a", chunksOf("a"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Rebuild(context.Background(), "", nil); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	cur, err := s.Current()
	if err != nil || cur != first {
		t.Error("failed rebuild replaced the active snapshot")
	}
}
