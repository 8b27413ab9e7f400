package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"gopkg.in/yaml.v3"

	"textbook-rag/internal/chromemdb"
	"textbook-rag/internal/config"
	"textbook-rag/internal/db"
	"textbook-rag/internal/embedding"
	"textbook-rag/internal/llmservice"
	"textbook-rag/internal/models"
	"textbook-rag/internal/rag"
	"textbook-rag/internal/vectorstore"
)

// openIndex opens the configured vector index. An in-memory chromem index is seeded from
// its snapshot when one exists.
func openIndex(ctx context.Context, embedder embeddings.Embedder) (vectorstore.Index, error) {
	vs := cfg.VectorStore
	switch vs.Type {
	case config.VectorStorePGVector:
		s, err := db.NewStore(ctx, vs.PGVector.DSN, config.Secret(vs.PGVector.PasswordEnv), vs.PGVector.Debug)
		if err != nil {
			return nil, err
		}
		return s, nil

	case config.VectorStoreChromem:
		m, err := chromemdb.NewVectorDBManager(chromemdb.Options{
			DBPath:        cfg.DBDir(),
			InMemory:      vs.Chromem.InMemory,
			Compress:      vs.Chromem.Compress,
			SnapshotFile:  vs.Chromem.SnapshotFile,
			EncryptionKey: config.Secret(vs.Chromem.EncryptionKeyEnv),
			EmbeddingFunc: embedding.EmbeddingFunc(embedder),
		})
		if err != nil {
			return nil, err
		}
		if vs.Chromem.InMemory && vs.Chromem.SnapshotFile != "" {
			if _, err := os.Stat(vs.Chromem.SnapshotFile); err == nil {
				if err := m.Import(); err != nil {
					return nil, err
				}
			}
		}
		return m, nil
	}
	return nil, fmt.Errorf("unknown vector store: %s", vs.Type)
}

// saveSnapshot exports an in-memory chromem index so later runs can import it.
func saveSnapshot(index vectorstore.Index, collections []string) error {
	m, ok := index.(*chromemdb.VectorDBManager)
	if !ok || !cfg.VectorStore.Chromem.InMemory || cfg.VectorStore.Chromem.SnapshotFile == "" {
		return nil
	}
	// export all collections, a partial snapshot would drop books indexed earlier
	if err := m.Export(); err != nil {
		return err
	}
	log.Info().Strs("collections", collections).Str("file", cfg.VectorStore.Chromem.SnapshotFile).Msg("Snapshot saved")
	return nil
}

func newRAG(ctx context.Context) (*rag.RAG, vectorstore.Index, error) {
	embedder, err := embedding.NewEmbedder(&cfg.Embedding)
	if err != nil {
		return nil, nil, err
	}
	index, err := openIndex(ctx, embedder)
	if err != nil {
		return nil, nil, err
	}
	llm, err := llmservice.NewClient(&cfg.LLM)
	if err != nil {
		index.Close()
		return nil, nil, err
	}
	return rag.NewRAG(index, embedder, llm, cfg), index, nil
}

// loadBook reads textbook metadata from a YAML file.
func loadBook(path string) (models.TextbookMetadata, error) {
	var book models.TextbookMetadata
	data, err := os.ReadFile(path)
	if err != nil {
		return book, fmt.Errorf("reading book metadata: %w", err)
	}
	if err := yaml.Unmarshal(data, &book); err != nil {
		return book, fmt.Errorf("parsing book metadata %s: %w", path, err)
	}
	return book, book.Validate()
}

// userError turns a missing collection into an actionable message.
func userError(err error, subject string, grade int) error {
	if errors.Is(err, vectorstore.ErrCollectionNotFound) {
		return fmt.Errorf("no indexed textbook for %s, grade %d. Run `textbook-rag embed` first", subject, grade)
	}
	return fmt.Errorf("unexpected error: %w", err)
}
