package app

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"learnquick/internal/config"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewStudyService_Defaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "test-key")
	t.Setenv("UNIDOC_LICENSE_KEY", "")
	svc, err := NewStudyService(testConfig(t), quietLogger())
	if err != nil {
		t.Fatal(err)
	}
	if svc == nil {
		t.Fatal("nil service")
	}
}

func TestNewStudyService_MissingGeneratorKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	_, err := NewStudyService(testConfig(t), quietLogger())
	if err == nil || !strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestNewEmbedder(t *testing.T) {
	emb, err := NewEmbedder(config.EmbedderConfig{Type: "tfidf"})
	if err != nil || emb == nil {
		t.Fatalf("tfidf: %v", err)
	}
	if _, err := NewEmbedder(config.EmbedderConfig{Type: "openai"}); err == nil {
		t.Error("expected error for missing openai section")
	}
	if _, err := NewEmbedder(config.EmbedderConfig{Type: "bert"}); err == nil {
		t.Error("expected error for unknown embedder")
	}
	t.Setenv("EMBED_KEY", "")
	if _, err := NewEmbedder(config.EmbedderConfig{Type: "openai", OpenAI: &config.OpenAIEmbedderConfig{APIKeyEnv: "EMBED_KEY"}}); err == nil {
		t.Error("expected error for missing embedder key")
	}
}
