package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
	MaxRetries  *int   `yaml:"max_retries"`
}

// Retries returns the configured retry count; an explicit 0 disables retries.
func (o OpenAIEmbedderConfig) Retries() int {
	if o.MaxRetries == nil {
		return defaultEmbedderRetries
	}
	return *o.MaxRetries
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// GeneratorConfig configures the OpenAI-compatible chat completion service.
type GeneratorConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	MaxRetries        *int    `yaml:"max_retries"`
}

// Retries returns the configured retry count; an explicit 0 disables retries.
func (g GeneratorConfig) Retries() int {
	if g.MaxRetries == nil {
		return defaultGeneratorRetries
	}
	return *g.MaxRetries
}

// Timeout returns the per-call deadline.
func (g GeneratorConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSecs) * time.Second
}

// ChunkerConfig configures the overlapping window segmenter.
type ChunkerConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// RetrievalConfig configures context retrieval.
type RetrievalConfig struct {
	TopK int `yaml:"top_k"`
}

// StudyConfig configures generation-backed study features.
type StudyConfig struct {
	MaxTopics        int `yaml:"max_topics"`
	DefaultQuizSize  int `yaml:"default_quiz_size"`
	MaxQuizSize      int `yaml:"max_quiz_size"`
	MaxInputChars    int `yaml:"max_input_chars"`
	PreviewSentences int `yaml:"preview_sentences"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	UploadDir        string `yaml:"upload_dir"`
	WatchDir         string `yaml:"watch_dir"`
	MaxUploadMB      int    `yaml:"max_upload_mb"`
	// PDFLicenseKeyEnv names the variable holding the UniDoc key, used for PDF, DOCX and PPTX.
	PDFLicenseKeyEnv string `yaml:"pdf_license_key_env"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Generator GeneratorConfig `yaml:"generator"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Study     StudyConfig     `yaml:"study"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/learnquick/config.yaml.
// If neither exists, it writes defaults to ~/.config/learnquick/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings the pipeline cannot run with.
func (c *AppConfig) Validate() error {
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("chunker.chunk_size must be positive, got %d", c.Chunker.ChunkSize)
	}
	if c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.ChunkSize {
		return fmt.Errorf("chunker.overlap must be in [0, %d), got %d", c.Chunker.ChunkSize, c.Chunker.Overlap)
	}
	if c.Generator.Retries() < 0 {
		return fmt.Errorf("generator.max_retries must not be negative, got %d", c.Generator.Retries())
	}
	switch c.Embedder.Type {
	case "tfidf":
	case "openai":
		if c.Embedder.OpenAI == nil {
			return errors.New("embedder.openai section missing")
		}
	default:
		return fmt.Errorf("unknown embedder: %s", c.Embedder.Type)
	}
	return nil
}

const (
	defaultGeneratorRetries = 2
	defaultEmbedderRetries  = 3
)

func intPtr(v int) *int { return &v }

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "learnquick", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = "tfidf"
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		o := cfg.Embedder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.BatchSize == 0 {
			o.BatchSize = 2048
		}
		if o.MaxRetries == nil {
			o.MaxRetries = intPtr(defaultEmbedderRetries)
		}
	}
	g := &cfg.Generator
	if g.BaseURL == "" {
		g.BaseURL = "https://api.groq.com/openai/v1"
	}
	if g.APIKeyEnv == "" {
		g.APIKeyEnv = "GROQ_API_KEY"
	}
	if g.Model == "" {
		g.Model = "llama-3.1-8b-instant"
	}
	if g.TimeoutSecs == 0 {
		g.TimeoutSecs = 60
	}
	if g.Burst == 0 {
		g.Burst = 1
	}
	if g.MaxRetries == nil {
		g.MaxRetries = intPtr(defaultGeneratorRetries)
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
		if cfg.Chunker.Overlap == 0 {
			cfg.Chunker.Overlap = 50
		}
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 5
	}
	s := &cfg.Study
	if s.MaxTopics == 0 {
		s.MaxTopics = 10
	}
	if s.DefaultQuizSize == 0 {
		s.DefaultQuizSize = 5
	}
	if s.MaxQuizSize == 0 {
		s.MaxQuizSize = 20
	}
	if s.MaxInputChars == 0 {
		s.MaxInputChars = 24000
	}
	if s.PreviewSentences == 0 {
		s.PreviewSentences = 3
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploaded_files"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 64
	}
	if cfg.Server.PDFLicenseKeyEnv == "" {
		cfg.Server.PDFLicenseKeyEnv = "UNIDOC_LICENSE_KEY"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
