package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"

	"learnquick/internal/corpus"
	"learnquick/internal/domain"
	"learnquick/internal/embedding/tfidf"
	"learnquick/internal/vectorstore/memory"
)

// --- mocks ---

type fixedEmbedder struct {
	query []float32
	calls [][]string
}

func (m *fixedEmbedder) Name() string { return "fixed" }

func (m *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls = append(m.calls, texts)
	return [][]float32{m.query}, nil
}

// snapshotWithDistances builds a 1-D index where chunk i sits at position i,
// so for a query at 10 the nearest chunk is the one with the highest i.
func snapshotWithDistances(t *testing.T, n int, emb domain.Embedder) *corpus.Snapshot {
	t.Helper()
	chunks := make([]domain.Chunk, n)
	vectors := make([][]float32, n)
	for i := 0; i < n; i++ {
		chunks[i] = domain.Chunk{ID: i, Text: string(rune('a' + i))}
		vectors[i] = []float32{float32(i)}
	}
	index, err := memory.Build(vectors)
	if err != nil {
		t.Fatal(err)
	}
	return &corpus.Snapshot{ID: "test", Chunks: chunks, Vectors: vectors, Index: index, Embedder: emb}
}

// --- tests ---

func TestRetrieve_RankOrder(t *testing.T) {
	emb := &fixedEmbedder{query: []float32{10}}
	snap := snapshotWithDistances(t, 5, emb)
	got, err := Retrieve(context.Background(), snap, "what?", 3, ParagraphSeparator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "e\n\nd\n\nc"; got != want {
		t.Errorf("Retrieve = %q, want %q", got, want)
	}
	if len(emb.calls) != 1 || !reflect.DeepEqual(emb.calls[0], []string{"what?"}) {
		t.Errorf("query must be embedded as a single-element batch, got %v", emb.calls)
	}
}

func TestRetrieve_ClampsTopK(t *testing.T) {
	snap := snapshotWithDistances(t, 2, &fixedEmbedder{query: []float32{0}})
	got, err := Retrieve(context.Background(), snap, "q", 5, "\n")
	if err != nil {
		t.Fatal(err)
	}
	if got != "a\nb" {
		t.Errorf("Retrieve = %q", got)
	}
}

func TestRetrieve_DoesNotMutateSnapshot(t *testing.T) {
	snap := snapshotWithDistances(t, 4, &fixedEmbedder{query: []float32{3}})
	before := append([]domain.Chunk(nil), snap.Chunks...)
	if _, err := Retrieve(context.Background(), snap, "q", 4, "\n"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(before, snap.Chunks) || snap.Index.Size() != 4 {
		t.Error("retrieval mutated the snapshot")
	}
}

func TestSearch_Errors(t *testing.T) {
	if _, err := Search(context.Background(), nil, "q", 1); !errors.Is(err, domain.ErrNoCorpus) {
		t.Errorf("expected ErrNoCorpus, got %v", err)
	}
	snap := snapshotWithDistances(t, 1, &fixedEmbedder{query: []float32{0}})
	if _, err := Search(context.Background(), snap, "q", 0); err == nil {
		t.Error("expected error for top_k=0")
	}
}

func TestSearch_ReportsDistances(t *testing.T) {
	snap := snapshotWithDistances(t, 3, &fixedEmbedder{query: []float32{0}})
	hits, err := Search(context.Background(), snap, "q", 2)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].Chunk.ID != 0 || hits[0].Distance != 0 || hits[1].Chunk.ID != 1 || hits[1].Distance != 1 {
		t.Errorf("unexpected hits %+v", hits)
	}
}

// generationChunks tags every chunk with gen so a hit can be traced to the rebuild that produced it.
func generationChunks(gen int) []domain.Chunk {
	chunks := make([]domain.Chunk, 2+gen%5)
	for i := range chunks {
		chunks[i] = domain.Chunk{ID: i, Text: fmt.Sprintf("gen%d photon lens refraction part %d", gen, i)}
	}
	return chunks
}

func TestSearch_ConcurrentWithRebuild(t *testing.T) {
	ctx := context.Background()
	store := corpus.NewStore(tfidf.NewEmbedder(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := store.Rebuild(ctx, "gen0", generationChunks(0)); err != nil {
		t.Fatal(err)
	}

	const rebuilds = 40
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for gen := 1; gen <= rebuilds; gen++ {
			if _, err := store.Rebuild(ctx, fmt.Sprintf("gen%d", gen), generationChunks(gen)); err != nil {
				t.Errorf("rebuild %d: %v", gen, err)
				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				snap, err := store.Current()
				if err != nil {
					t.Errorf("current: %v", err)
					return
				}
				hits, err := Search(ctx, snap, "photon refraction", 3)
				if err != nil {
					t.Errorf("search snapshot %s: %v", snap.ID, err)
					return
				}
				prefix := snap.Text + " "
				for _, h := range hits {
					if !strings.HasPrefix(h.Chunk.Text, prefix) || snap.Chunks[h.Chunk.ID].Text != h.Chunk.Text {
						t.Errorf("hit %q does not belong to snapshot %s", h.Chunk.Text, snap.Text)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	snap, err := store.Current()
	if err != nil {
		t.Fatal(err)
	}
	if want := fmt.Sprintf("gen%d", rebuilds); snap.Text != want {
		t.Errorf("active snapshot %s, want %s", snap.Text, want)
	}
}
