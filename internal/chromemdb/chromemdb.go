package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"textbook-rag/internal/vectorstore"
)

// VectorDBManager encapsulates the chromem-go database operations
type VectorDBManager struct {
	db            *chromem.DB
	embeddingFunc chromem.EmbeddingFunc
	dbPath        string
	compress      bool
	encryptionKey string
	snapshotFile  string
}

type Options struct {
	DBPath        string
	InMemory      bool
	Compress      bool
	SnapshotFile  string
	EncryptionKey string
	// used by chromem only for documents or queries that arrive without a vector
	EmbeddingFunc chromem.EmbeddingFunc
}

var _ vectorstore.Index = (*VectorDBManager)(nil)

// NewVectorDBManager opens a persistent database at DBPath, or an in-memory one.
func NewVectorDBManager(opts Options) (*VectorDBManager, error) {
	var db *chromem.DB
	var err error
	if opts.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(opts.DBPath, opts.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	return &VectorDBManager{
		db:            db,
		embeddingFunc: opts.EmbeddingFunc,
		dbPath:        opts.DBPath,
		compress:      opts.Compress,
		encryptionKey: opts.EncryptionKey,
		snapshotFile:  opts.SnapshotFile,
	}, nil
}

// create or read collection
func (m *VectorDBManager) GetOrCreateCollection(ctx context.Context, name string) error {
	_, err := m.db.GetOrCreateCollection(name, nil, m.embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	return nil
}

func (m *VectorDBManager) collection(name string) (*chromem.Collection, error) {
	c := m.db.GetCollection(name, m.embeddingFunc)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	return c, nil
}

// Upsert adds documents; an existing id is overwritten.
func (m *VectorDBManager) Upsert(ctx context.Context, name string, records []vectorstore.Record) error {
	c, err := m.collection(name)
	if err != nil {
		return err
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Document,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query runs a cosine similarity search. chromem reports similarity, the index contract
// is distance, so distance = 1 - similarity.
func (m *VectorDBManager) Query(ctx context.Context, name string, vector []float32, k int) ([]vectorstore.Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	c, err := m.collection(name)
	if err != nil {
		return nil, err
	}
	// chromem rejects nResults above the document count
	n := min(k, c.Count())
	if n == 0 {
		return nil, nil
	}

	results, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       n,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	matches := make([]vectorstore.Match, len(results))
	for i, r := range results {
		matches[i] = vectorstore.Match{
			ID:       r.ID,
			Document: r.Content,
			Metadata: r.Metadata,
			Distance: 1 - float64(r.Similarity),
		}
	}
	vectorstore.SortMatches(matches)
	return matches, nil
}

func (m *VectorDBManager) Count(ctx context.Context, name string) (int, error) {
	c, err := m.collection(name)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

// delete collection
func (m *VectorDBManager) DeleteCollection(name string) error {
	if err := m.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Export writes the given collections (all when none) to the encrypted snapshot file.
func (m *VectorDBManager) Export(collections ...string) error {
	if m.encryptionKey == "" {
		return fmt.Errorf("encryption key is required")
	}
	if m.snapshotFile == "" {
		return fmt.Errorf("snapshot file is required")
	}

	log.Debug().Str("file", m.snapshotFile).Bool("compress", m.compress).Strs("collections", collections).Msg("Exporting vector database")
	if err := m.db.ExportToFile(m.snapshotFile, m.compress, m.encryptionKey, collections...); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import loads collections from the snapshot file written by Export.
func (m *VectorDBManager) Import(collections ...string) error {
	if m.snapshotFile == "" {
		return fmt.Errorf("snapshot file is required")
	}
	log.Debug().Str("file", m.snapshotFile).Msg("Importing vector database")
	if err := m.db.ImportFromFile(m.snapshotFile, m.encryptionKey, collections...); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return nil
}

// Close is a no-op, chromem persists on every write.
func (m *VectorDBManager) Close() error { return nil }
