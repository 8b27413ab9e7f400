package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"textbook-rag/internal/helper"
)

type Config struct {
	LogLevel    string            `yaml:"log_level"`
	Data        DataConfig        `yaml:"data"`
	OCR         OCRConfig         `yaml:"ocr"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	LLM         LLMConfig         `yaml:"llm"`
	RAG         RAGConfig         `yaml:"rag"`
}

// DataConfig is the on-disk layout shared by every stage.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

type OCRConfig struct {
	Language         string `yaml:"language"`
	DPI              int    `yaml:"dpi"`
	TesseractPath    string `yaml:"tesseract_path"`
	PdftoppmPath     string `yaml:"pdftoppm_path"`
	PreferNativeText bool   `yaml:"prefer_native_text"`
	SkipExisting     bool   `yaml:"skip_existing"`
}

type EmbeddingConfig struct {
	Provider          string        `yaml:"provider"`
	BaseURL           string        `yaml:"base_url"`
	Model             string        `yaml:"model"`
	APIKeyEnv         string        `yaml:"api_key_env"`
	BatchSize         int           `yaml:"batch_size"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Display           DisplayConfig `yaml:"display"`
}

// DisplayConfig caps what goes into the text that is embedded and stored for a chunk.
type DisplayConfig struct {
	MaxContentChars int `yaml:"max_content_chars"`
	MaxFormulas     int `yaml:"max_formulas"`
	MaxDates        int `yaml:"max_dates"`
	MaxFigures      int `yaml:"max_figures"`
}

type VectorStoreConfig struct {
	Type             string         `yaml:"type"`
	CollectionPrefix string         `yaml:"collection_prefix"`
	UpsertBatchSize  int            `yaml:"upsert_batch_size"`
	Chromem          ChromemConfig  `yaml:"chromem"`
	PGVector         PGVectorConfig `yaml:"pgvector"`
}

type ChromemConfig struct {
	InMemory         bool   `yaml:"in_memory"`
	Compress         bool   `yaml:"compress"`
	SnapshotFile     string `yaml:"snapshot_file"`
	EncryptionKeyEnv string `yaml:"encryption_key_env"`
}

type PGVectorConfig struct {
	DSN         string `yaml:"dsn"`
	PasswordEnv string `yaml:"password_env"`
	Debug       bool   `yaml:"debug"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

type RAGConfig struct {
	NResults int `yaml:"n_results"`
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"

	VectorStoreChromem  = "chromem"
	VectorStorePGVector = "pgvector"

	defaultDataDir          = "./data"
	defaultOCRLanguage      = "rus"
	defaultDPI              = 300
	defaultCollectionPrefix = "textbook"
	defaultUpsertBatchSize  = 100
	defaultEmbedBatchSize   = 32
	defaultEmbeddingModel   = "nomic-embed-text"
	defaultLLMModel         = "qwen3:8b"
	defaultOllamaURL        = "http://localhost:11434"
	defaultOpenAIURL        = "https://api.openai.com/v1"
	defaultLLMTimeoutSecs   = 300
	defaultNResults         = 3
)

// LoadConfig reads the YAML config at path. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, err
	}
	// defaults go in after the file so base URLs follow the configured provider
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = defaultDataDir
	}
	if cfg.OCR.Language == "" {
		cfg.OCR.Language = defaultOCRLanguage
	}
	if cfg.OCR.DPI == 0 {
		cfg.OCR.DPI = defaultDPI
	}
	if cfg.OCR.TesseractPath == "" {
		cfg.OCR.TesseractPath = "tesseract"
	}
	if cfg.OCR.PdftoppmPath == "" {
		cfg.OCR.PdftoppmPath = "pdftoppm"
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = ProviderOllama
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = defaultBaseURL(cfg.Embedding.Provider)
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaultEmbeddingModel
	}
	if cfg.Embedding.APIKeyEnv == "" {
		cfg.Embedding.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = defaultEmbedBatchSize
	}
	d := &cfg.Embedding.Display
	if d.MaxContentChars == 0 {
		d.MaxContentChars = 500
	}
	if d.MaxFormulas == 0 {
		d.MaxFormulas = 3
	}
	if d.MaxDates == 0 {
		d.MaxDates = 5
	}
	if d.MaxFigures == 0 {
		d.MaxFigures = 3
	}

	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = VectorStoreChromem
	}
	if cfg.VectorStore.CollectionPrefix == "" {
		cfg.VectorStore.CollectionPrefix = defaultCollectionPrefix
	}
	if cfg.VectorStore.UpsertBatchSize == 0 {
		cfg.VectorStore.UpsertBatchSize = defaultUpsertBatchSize
	}
	if cfg.VectorStore.Chromem.EncryptionKeyEnv == "" {
		cfg.VectorStore.Chromem.EncryptionKeyEnv = "CHROMEM_ENCRYPTION_KEY"
	}
	if cfg.VectorStore.PGVector.PasswordEnv == "" {
		cfg.VectorStore.PGVector.PasswordEnv = "PGVECTOR_PASSWORD"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = ProviderOllama
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = defaultBaseURL(cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultLLMModel
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = defaultLLMTimeoutSecs
	}

	if cfg.RAG.NResults == 0 {
		cfg.RAG.NResults = defaultNResults
	}
}

func defaultBaseURL(provider string) string {
	if provider == ProviderOpenAI {
		return defaultOpenAIURL
	}
	return defaultOllamaURL
}

func (c *Config) Validate() error {
	for _, p := range []string{c.Embedding.Provider, c.LLM.Provider} {
		if p != ProviderOllama && p != ProviderOpenAI {
			return fmt.Errorf("unknown provider: %s", p)
		}
	}
	switch c.VectorStore.Type {
	case VectorStoreChromem:
	case VectorStorePGVector:
		if c.VectorStore.PGVector.DSN == "" {
			return fmt.Errorf("vector_store.pgvector.dsn is required for the pgvector store")
		}
	default:
		return fmt.Errorf("unknown vector store: %s", c.VectorStore.Type)
	}
	if c.OCR.DPI < 0 {
		return fmt.Errorf("ocr.dpi must be positive, got %d", c.OCR.DPI)
	}
	if c.RAG.NResults < 1 {
		return fmt.Errorf("rag.n_results must be >= 1, got %d", c.RAG.NResults)
	}
	if c.VectorStore.UpsertBatchSize < 1 {
		return fmt.Errorf("vector_store.upsert_batch_size must be >= 1, got %d", c.VectorStore.UpsertBatchSize)
	}
	if c.Embedding.BatchSize < 1 {
		return fmt.Errorf("embedding.batch_size must be >= 1, got %d", c.Embedding.BatchSize)
	}
	return nil
}

func (c *Config) RawDir() string        { return filepath.Join(c.Data.Dir, "raw") }
func (c *Config) OCRDir() string        { return filepath.Join(c.Data.Dir, "ocr") }
func (c *Config) StructuredDir() string { return filepath.Join(c.Data.Dir, "structured") }
func (c *Config) DBDir() string         { return filepath.Join(c.Data.Dir, "db") }

// EnsureDirs creates the data directory tree.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.RawDir(), c.OCRDir(), c.StructuredDir(), c.DBDir()} {
		if err := helper.CreateFolder(dir); err != nil {
			return err
		}
	}
	return nil
}

// Secret resolves an *_env key, returning "" when the variable is unset.
func Secret(envName string) string {
	if envName == "" {
		return ""
	}
	return os.Getenv(envName)
}
