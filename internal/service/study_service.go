// Package service exposes the study operations: building a corpus from
// uploaded material, answering questions from it, generating and checking
// quizzes, extracting topics and summarizing.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"learnquick/internal/chunker"
	"learnquick/internal/corpus"
	"learnquick/internal/domain"
	"learnquick/internal/quiz"
	"learnquick/internal/retrieval"
	"learnquick/internal/summarizer"
	"learnquick/internal/topics"
)

// AnswerMaxTokens is the generation budget for a grounded answer.
const AnswerMaxTokens = 300

// Options configures the study pipeline.
type Options struct {
	TopK             int
	MaxTopics        int
	DefaultQuizSize  int
	MaxQuizSize      int
	MaxInputChars    int
	PreviewSentences int
}

// DefaultOptions returns the default pipeline settings.
func DefaultOptions() Options {
	return Options{
		TopK:             5,
		MaxTopics:        10,
		DefaultQuizSize:  5,
		MaxQuizSize:      20,
		MaxInputChars:    24000,
		PreviewSentences: 3,
	}
}

// BuildStats describes a published corpus.
type BuildStats struct {
	SnapshotID string `json:"snapshot_id"`
	ChunkCount int    `json:"total_chunks"`
	CharCount  int    `json:"total_characters"`
	Preview    string `json:"preview,omitempty"`
}

// Quiz is a parsed quiz together with the raw reply it was parsed from.
// Raw is what CheckQuizAnswer expects.
type Quiz struct {
	Items      []domain.QuizItem `json:"mcqs"`
	Raw        string            `json:"raw"`
	SnapshotID string            `json:"snapshot_id"`
}

// StudyService wires the pipeline stages together. It is safe for concurrent
// use: every query pins the corpus snapshot that is current when it starts.
type StudyService struct {
	chunker   *chunker.WindowChunker
	store     *corpus.Store
	gen       domain.Generator
	extractor domain.Extractor
	preview   domain.Summarizer
	topics    *topics.Extractor
	summary   *summarizer.LLMSummarizer
	opts      Options
	logger    *slog.Logger
}

// NewStudyService creates a StudyService. preview may be nil.
func NewStudyService(ch *chunker.WindowChunker, store *corpus.Store, gen domain.Generator, extractor domain.Extractor, preview domain.Summarizer, opts Options, logger *slog.Logger) *StudyService {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.DefaultQuizSize <= 0 {
		opts.DefaultQuizSize = def.DefaultQuizSize
	}
	if opts.MaxQuizSize <= 0 {
		opts.MaxQuizSize = def.MaxQuizSize
	}
	if opts.PreviewSentences <= 0 {
		opts.PreviewSentences = def.PreviewSentences
	}
	return &StudyService{
		chunker:   ch,
		store:     store,
		gen:       gen,
		extractor: extractor,
		preview:   preview,
		topics:    topics.NewExtractor(gen, opts.MaxTopics, logger),
		summary:   summarizer.NewLLMSummarizer(gen),
		opts:      opts,
		logger:    logger,
	}
}

// BuildCorpus cleans and segments text, embeds the chunks and publishes the
// resulting snapshot. Text with no content fails with ErrEmptyCorpus and
// leaves the previous corpus active.
func (s *StudyService) BuildCorpus(ctx context.Context, text string) (BuildStats, error) {
	cleaned := chunker.CleanText(text)
	chunks := s.chunker.Chunk(cleaned)
	if strings.TrimSpace(cleaned) == "" {
		chunks = nil
	}
	snap, err := s.store.Rebuild(ctx, cleaned, chunks)
	if err != nil {
		return BuildStats{}, fmt.Errorf("service: build corpus: %w", err)
	}
	stats := BuildStats{
		SnapshotID: snap.ID,
		ChunkCount: snap.ChunkCount(),
		CharCount:  utf8.RuneCountInString(text),
	}
	if s.preview != nil {
		if p, err := s.preview.Summarize(cleaned, s.opts.PreviewSentences); err == nil {
			stats.Preview = p
		} else {
			s.logger.Warn("preview summary failed", "err", err)
		}
	}
	return stats, nil
}

// IngestFiles extracts text from every supported file matched by paths
// (globs allowed), concatenates it in order and builds one corpus from it.
func (s *StudyService) IngestFiles(ctx context.Context, paths []string) (BuildStats, error) {
	var (
		all   strings.Builder
		files int
	)
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			text, err := s.extractor.Extract(m)
			if errors.Is(err, domain.ErrUnsupportedFormat) {
				s.logger.Warn("skipping unsupported file", "path", m)
				continue
			}
			if err != nil {
				return BuildStats{}, fmt.Errorf("service: extract %s: %w", m, err)
			}
			all.WriteString(text)
			all.WriteString("\n")
			files++
		}
	}
	if files == 0 {
		return BuildStats{}, fmt.Errorf("service: no supported documents found: %w", domain.ErrEmptyCorpus)
	}
	s.logger.Info("ingesting files", "files", files)
	return s.BuildCorpus(ctx, all.String())
}

// Ask answers question from the chunks nearest to it.
func (s *StudyService) Ask(ctx context.Context, question string) (string, error) {
	snap, err := s.store.Current()
	if err != nil {
		return "", err
	}
	material, err := retrieval.Retrieve(ctx, snap, question, s.opts.TopK, retrieval.ParagraphSeparator)
	if err != nil {
		return "", fmt.Errorf("service: ask: %w", err)
	}
	answer, err := s.gen.Complete(ctx, answerPrompt(material, question), AnswerMaxTokens)
	if err != nil {
		return "", fmt.Errorf("service: ask: %w", err)
	}
	return answer, nil
}

func answerPrompt(context, question string) string {
	return fmt.Sprintf(`
You are a Smart Campus Assistant.

Use ONLY the following study material to answer:

CONTEXT:
%s

QUESTION:
%s

Give a clear answer.
`, context, question)
}

// QuizSize clamps a requested question count; n <= 0 selects the default.
func (s *StudyService) QuizSize(n int) int {
	if n <= 0 {
		return s.opts.DefaultQuizSize
	}
	if n > s.opts.MaxQuizSize {
		return s.opts.MaxQuizSize
	}
	return n
}

// GenerateQuiz asks for n multiple-choice questions grounded in the corpus.
// Items the parser could not fully read are kept; a count different from n
// is logged, not treated as an error.
func (s *StudyService) GenerateQuiz(ctx context.Context, n int) (Quiz, error) {
	snap, err := s.store.Current()
	if err != nil {
		return Quiz{}, err
	}
	n = s.QuizSize(n)
	material, err := retrieval.Retrieve(ctx, snap, quiz.RetrievalQuery, s.opts.TopK, "\n")
	if err != nil {
		return Quiz{}, fmt.Errorf("service: quiz: %w", err)
	}
	raw, err := s.gen.Complete(ctx, quiz.BuildPrompt(material, n), quiz.MaxTokens(n))
	if err != nil {
		return Quiz{}, fmt.Errorf("service: quiz: %w", err)
	}
	items := quiz.ParseQuiz(raw)
	unanswered := 0
	for _, it := range items {
		if it.CorrectIndex == nil {
			unanswered++
		}
	}
	if len(items) != n || unanswered > 0 {
		s.logger.Warn("quiz reply irregular", "requested", n, "parsed", len(items), "without_answer", unanswered, "reply_len", len(raw))
	}
	if items == nil {
		items = []domain.QuizItem{}
	}
	return Quiz{Items: items, Raw: raw, SnapshotID: snap.ID}, nil
}

// CheckQuizAnswer checks userAnswer for question questionNumber of a raw quiz reply.
func (s *StudyService) CheckQuizAnswer(rawQuizText string, questionNumber int, userAnswer string) domain.AnswerCheckResult {
	return quiz.Check(rawQuizText, questionNumber, userAnswer)
}

// ExtractTopics returns the main topics of text.
func (s *StudyService) ExtractTopics(ctx context.Context, text string) ([]domain.Topic, error) {
	return s.topics.Topics(ctx, s.limitInput(text))
}

// ExtractHierarchy returns the topic hierarchy of text.
func (s *StudyService) ExtractHierarchy(ctx context.Context, text string) ([]domain.TopicHierarchy, error) {
	return s.topics.Hierarchy(ctx, s.limitInput(text))
}

// CorpusTopics extracts topics from the current corpus text.
func (s *StudyService) CorpusTopics(ctx context.Context) ([]domain.Topic, error) {
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return s.ExtractTopics(ctx, snap.Text)
}

// CorpusHierarchy extracts the topic hierarchy of the current corpus text.
func (s *StudyService) CorpusHierarchy(ctx context.Context) ([]domain.TopicHierarchy, error) {
	snap, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	return s.ExtractHierarchy(ctx, snap.Text)
}

// Summarize returns a generated summary of the current corpus text.
func (s *StudyService) Summarize(ctx context.Context) (string, error) {
	snap, err := s.store.Current()
	if err != nil {
		return "", err
	}
	return s.summary.Summarize(ctx, s.limitInput(snap.Text))
}

// limitInput truncates text to MaxInputChars runes so whole-corpus prompts fit the model.
func (s *StudyService) limitInput(text string) string {
	if s.opts.MaxInputChars <= 0 || utf8.RuneCountInString(text) <= s.opts.MaxInputChars {
		return text
	}
	s.logger.Debug("truncating prompt input", "chars", utf8.RuneCountInString(text), "limit", s.opts.MaxInputChars)
	return string([]rune(text)[:s.opts.MaxInputChars])
}
