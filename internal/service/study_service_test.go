package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"learnquick/internal/chunker"
	"learnquick/internal/corpus"
	"learnquick/internal/domain"
	"learnquick/internal/embedding/tfidf"
	"learnquick/internal/extract"
	"learnquick/internal/quiz"
	"learnquick/internal/summarizer"
)

// --- mocks ---

type recordingGenerator struct {
	reply     string
	err       error
	prompts   []string
	maxTokens []int
}

func (g *recordingGenerator) Complete(_ context.Context, prompt string, maxTokens int) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.maxTokens = append(g.maxTokens, maxTokens)
	return g.reply, g.err
}

func (g *recordingGenerator) lastPrompt() string {
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

const material = `Osmosis is the movement of water across a semipermeable membrane.
Photosynthesis converts light energy into chemical energy inside chloroplasts.
Mitochondria release energy from glucose during cellular respiration.
Diffusion moves particles from high concentration to low concentration.`

func newTestService(t *testing.T, gen *recordingGenerator, opts Options) *StudyService {
	t.Helper()
	ch, err := chunker.NewWindowChunker(80, 10)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := corpus.NewStore(tfidf.NewEmbedder(), logger)
	return NewStudyService(ch, store, gen, &extract.FileExtractor{}, summarizer.NewFrequencySummarizer(), opts, logger)
}

// --- tests ---

func TestStudyService_RequiresCorpus(t *testing.T) {
	gen := &recordingGenerator{reply: "unused"}
	svc := newTestService(t, gen, DefaultOptions())
	ctx := context.Background()

	if _, err := svc.Ask(ctx, "what is osmosis?"); !errors.Is(err, domain.ErrNoCorpus) {
		t.Errorf("Ask: expected ErrNoCorpus, got %v", err)
	}
	if _, err := svc.GenerateQuiz(ctx, 3); !errors.Is(err, domain.ErrNoCorpus) {
		t.Errorf("GenerateQuiz: expected ErrNoCorpus, got %v", err)
	}
	if _, err := svc.Summarize(ctx); !errors.Is(err, domain.ErrNoCorpus) {
		t.Errorf("Summarize: expected ErrNoCorpus, got %v", err)
	}
	if _, err := svc.CorpusTopics(ctx); !errors.Is(err, domain.ErrNoCorpus) {
		t.Errorf("CorpusTopics: expected ErrNoCorpus, got %v", err)
	}
	if len(gen.prompts) != 0 {
		t.Errorf("generator called %d times without a corpus", len(gen.prompts))
	}
}

func TestBuildCorpus_Stats(t *testing.T) {
	svc := newTestService(t, &recordingGenerator{}, DefaultOptions())
	stats, err := svc.BuildCorpus(context.Background(), material)
	if err != nil {
		t.Fatal(err)
	}
	if stats.SnapshotID == "" {
		t.Error("expected a snapshot id")
	}
	if stats.ChunkCount < 2 {
		t.Errorf("expected several chunks, got %d", stats.ChunkCount)
	}
	if stats.CharCount != len(material) {
		t.Errorf("char count = %d, want %d", stats.CharCount, len(material))
	}
	if stats.Preview == "" {
		t.Error("expected a preview summary")
	}
}

func TestBuildCorpus_EmptyKeepsPrevious(t *testing.T) {
	svc := newTestService(t, &recordingGenerator{}, DefaultOptions())
	ctx := context.Background()
	first, err := svc.BuildCorpus(ctx, material)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.BuildCorpus(ctx, " \n\t "); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
	snap, err := svc.store.Current()
	if err != nil {
		t.Fatal(err)
	}
	if snap.ID != first.SnapshotID {
		t.Errorf("active snapshot changed to %s after failed build", snap.ID)
	}
}

func TestAsk_GroundedPrompt(t *testing.T) {
	gen := &recordingGenerator{reply: "Water moves across a membrane."}
	svc := newTestService(t, gen, DefaultOptions())
	ctx := context.Background()
	if _, err := svc.BuildCorpus(ctx, material); err != nil {
		t.Fatal(err)
	}
	answer, err := svc.Ask(ctx, "osmosis membrane water")
	if err != nil {
		t.Fatal(err)
	}
	if answer != gen.reply {
		t.Errorf("answer = %q", answer)
	}
	prompt := gen.lastPrompt()
	if !strings.Contains(prompt, "QUESTION:\nosmosis membrane water") {
		t.Errorf("prompt missing question:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Osmosis is the movement") {
		t.Errorf("prompt missing nearest chunk:\n%s", prompt)
	}
	if gen.maxTokens[0] != AnswerMaxTokens {
		t.Errorf("max tokens = %d, want %d", gen.maxTokens[0], AnswerMaxTokens)
	}
}

func TestAsk_GenerationErrorPropagates(t *testing.T) {
	gen := &recordingGenerator{err: domain.ErrGenerationTimeout}
	svc := newTestService(t, gen, DefaultOptions())
	ctx := context.Background()
	if _, err := svc.BuildCorpus(ctx, material); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Ask(ctx, "osmosis"); !errors.Is(err, domain.ErrGenerationTimeout) {
		t.Fatalf("expected ErrGenerationTimeout, got %v", err)
	}
}

const quizReply = `Q1: What moves in osmosis?
A) Salt
B) Water
C) Glucose
D) Light
Correct Answer: B
Explanation: Osmosis is the movement of water.

Q2: Where does photosynthesis happen?
A) Mitochondria
B) Nucleus
C) Chloroplasts
D) Ribosomes
Correct Answer: C`

func TestGenerateQuiz(t *testing.T) {
	gen := &recordingGenerator{reply: quizReply}
	svc := newTestService(t, gen, DefaultOptions())
	ctx := context.Background()
	stats, err := svc.BuildCorpus(ctx, material)
	if err != nil {
		t.Fatal(err)
	}
	q, err := svc.GenerateQuiz(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(q.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(q.Items))
	}
	if q.Raw != quizReply || q.SnapshotID != stats.SnapshotID {
		t.Errorf("quiz metadata = raw %d bytes, snapshot %s", len(q.Raw), q.SnapshotID)
	}
	if gen.maxTokens[0] != quiz.MaxTokens(2) {
		t.Errorf("max tokens = %d, want %d", gen.maxTokens[0], quiz.MaxTokens(2))
	}
	if !strings.Contains(gen.lastPrompt(), "2") {
		t.Errorf("prompt does not request 2 questions:\n%s", gen.lastPrompt())
	}

	if got := svc.CheckQuizAnswer(q.Raw, 2, "c"); got.Verdict != domain.VerdictCorrect {
		t.Errorf("check Q2 = %+v", got)
	}
	if got := svc.CheckQuizAnswer(q.Raw, 1, "A"); got.Verdict != domain.VerdictIncorrect || got.CorrectLetter != "B" {
		t.Errorf("check Q1 = %+v", got)
	}
	if got := svc.CheckQuizAnswer(q.Raw, 7, "A"); got.Verdict != domain.VerdictNotFound {
		t.Errorf("check Q7 = %+v", got)
	}
}

func TestGenerateQuiz_UnparseableReplyIsEmpty(t *testing.T) {
	gen := &recordingGenerator{reply: "I cannot help with that."}
	svc := newTestService(t, gen, DefaultOptions())
	ctx := context.Background()
	if _, err := svc.BuildCorpus(ctx, material); err != nil {
		t.Fatal(err)
	}
	q, err := svc.GenerateQuiz(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if q.Items == nil || len(q.Items) != 0 {
		t.Errorf("expected empty non-nil items, got %#v", q.Items)
	}
}

func TestQuizSize(t *testing.T) {
	svc := newTestService(t, &recordingGenerator{}, Options{DefaultQuizSize: 4, MaxQuizSize: 10})
	cases := map[int]int{0: 4, -2: 4, 3: 3, 10: 10, 50: 10}
	for in, want := range cases {
		if got := svc.QuizSize(in); got != want {
			t.Errorf("QuizSize(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCorpusTopics(t *testing.T) {
	gen := &recordingGenerator{reply: `Topics: [{"topic": "Cell Biology", "keywords": ["osmosis", "diffusion"]}]`}
	svc := newTestService(t, gen, DefaultOptions())
	ctx := context.Background()
	if _, err := svc.BuildCorpus(ctx, material); err != nil {
		t.Fatal(err)
	}
	got, err := svc.CorpusTopics(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "Cell Biology" {
		t.Errorf("topics = %+v", got)
	}
}

func TestSummarize_TruncatesInput(t *testing.T) {
	gen := &recordingGenerator{reply: "Cells move water and make energy."}
	opts := DefaultOptions()
	opts.MaxInputChars = 20
	svc := newTestService(t, gen, opts)
	ctx := context.Background()
	if _, err := svc.BuildCorpus(ctx, material); err != nil {
		t.Fatal(err)
	}
	summary, err := svc.Summarize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary != gen.reply {
		t.Errorf("summary = %q", summary)
	}
	prompt := gen.lastPrompt()
	if !strings.Contains(prompt, "Osmosis is the movem") || strings.Contains(prompt, "Photosynthesis") {
		t.Errorf("prompt not truncated:\n%s", prompt)
	}
}

func TestIngestFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.txt": "Osmosis is the movement of water across a membrane.",
		"b.md":  "# Energy\nMitochondria release energy from glucose.",
		"c.odp": "binary slides",
		"d.odt": "binary document",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	svc := newTestService(t, &recordingGenerator{}, DefaultOptions())
	stats, err := svc.IngestFiles(context.Background(), []string{filepath.Join(dir, "*")})
	if err != nil {
		t.Fatal(err)
	}
	snap, err := svc.store.Current()
	if err != nil {
		t.Fatal(err)
	}
	if snap.ID != stats.SnapshotID {
		t.Errorf("stats snapshot %s, active %s", stats.SnapshotID, snap.ID)
	}
	if !strings.Contains(snap.Text, "Osmosis") || !strings.Contains(snap.Text, "Mitochondria") {
		t.Errorf("corpus text missing file content: %q", snap.Text)
	}
	if strings.Contains(snap.Text, "binary") {
		t.Errorf("unsupported file content ingested: %q", snap.Text)
	}
}

func TestIngestFiles_NothingSupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slides.odp")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(t, &recordingGenerator{}, DefaultOptions())
	if _, err := svc.IngestFiles(context.Background(), []string{path}); !errors.Is(err, domain.ErrEmptyCorpus) {
		t.Fatalf("expected ErrEmptyCorpus, got %v", err)
	}
}
