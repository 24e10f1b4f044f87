// Package app assembles the study pipeline from configuration.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"learnquick/internal/chunker"
	"learnquick/internal/config"
	"learnquick/internal/corpus"
	"learnquick/internal/domain"
	"learnquick/internal/embedding/openai"
	"learnquick/internal/embedding/tfidf"
	"learnquick/internal/extract"
	"learnquick/internal/generation"
	"learnquick/internal/service"
	"learnquick/internal/summarizer"
)

// NewEmbedder returns the embedding provider selected by cfg.
func NewEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:    cfg.OpenAI.BaseURL,
			APIKeyEnv:  cfg.OpenAI.APIKeyEnv,
			Model:      cfg.OpenAI.Model,
			Timeout:    time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize:  cfg.OpenAI.BatchSize,
			MaxRetries: cfg.OpenAI.Retries(),
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

// NewStudyService wires every pipeline stage according to cfg.
func NewStudyService(cfg *config.AppConfig, logger *slog.Logger) (*service.StudyService, error) {
	emb, err := NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	ch, err := chunker.NewWindowChunker(cfg.Chunker.ChunkSize, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}
	gen, err := generation.NewClient(generation.Config{
		BaseURL:           cfg.Generator.BaseURL,
		APIKeyEnv:         cfg.Generator.APIKeyEnv,
		Model:             cfg.Generator.Model,
		Timeout:           cfg.Generator.Timeout(),
		RequestsPerSecond: cfg.Generator.RequestsPerSecond,
		Burst:             cfg.Generator.Burst,
		MaxRetries:        cfg.Generator.Retries(),
	}, logger.With("component", "generation"))
	if err != nil {
		return nil, fmt.Errorf("generation client init failed: %w", err)
	}
	ext, err := extract.NewFileExtractor(os.Getenv(cfg.Server.PDFLicenseKeyEnv))
	if err != nil {
		return nil, err
	}
	store := corpus.NewStore(emb, logger.With("component", "corpus"))
	opts := service.Options{
		TopK:             cfg.Retrieval.TopK,
		MaxTopics:        cfg.Study.MaxTopics,
		DefaultQuizSize:  cfg.Study.DefaultQuizSize,
		MaxQuizSize:      cfg.Study.MaxQuizSize,
		MaxInputChars:    cfg.Study.MaxInputChars,
		PreviewSentences: cfg.Study.PreviewSentences,
	}
	logger.Info("pipeline ready",
		"embedder", emb.Name(),
		"model", cfg.Generator.Model,
		"chunk_size", ch.ChunkSize(),
		"overlap", ch.Overlap(),
	)
	return service.NewStudyService(ch, store, gen, ext, summarizer.NewFrequencySummarizer(), opts, logger.With("component", "service")), nil
}
