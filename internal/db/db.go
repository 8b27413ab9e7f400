package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"textbook-rag/internal/vectorstore"
)

type Collection struct {
	bun.BaseModel `bun:"table:collections,alias:c"`
	Name          string    `bun:"name,pk"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	Collection    string            `bun:"collection,pk"`
	ID            string            `bun:"id,pk"`
	Content       string            `bun:"content,notnull"`
	Metadata      map[string]string `bun:"metadata,type:jsonb"`
	Embedding     pgvector.Vector   `bun:"embedding,notnull,type:vector"`
	Distance      float64           `bun:"distance,scanonly"`
}

// Store is the pgvector implementation of vectorstore.Index.
type Store struct {
	db *bun.DB
}

var _ vectorstore.Index = (*Store)(nil)

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(debug),
		bundebug.WithVerbose(debug),
	))
	return db
}

func ConnectDB(dsn, password string) *sql.DB {
	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if password != "" {
		opts = append(opts, pgdriver.WithPassword(password))
	}
	return sql.OpenDB(pgdriver.NewConnector(opts...))
}

// NewStore connects and makes sure the extension and tables exist.
func NewStore(ctx context.Context, dsn, password string, debug bool) (*Store, error) {
	s := &Store{db: NewDB(ConnectDB(dsn, password), debug)}
	if err := s.InitDB(ctx); err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) InitDB(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*Collection)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create collections table: %w", err)
	}
	if _, err := s.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().
		ForeignKey(`("collection") REFERENCES "collections" ("name") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *Store) GetOrCreateCollection(ctx context.Context, name string) error {
	_, err := s.db.NewInsert().
		Model(&Collection{Name: name}).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create/get collection: %w", err)
	}
	return nil
}

func (s *Store) ensureCollection(ctx context.Context, name string) error {
	exists, err := s.db.NewSelect().Model((*Collection)(nil)).Where("name = ?", name).Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to look up collection: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", vectorstore.ErrCollectionNotFound, name)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, collection string, records []vectorstore.Record) error {
	if err := s.ensureCollection(ctx, collection); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = Document{
			Collection: collection,
			ID:         r.ID,
			Content:    r.Document,
			Metadata:   r.Metadata,
			Embedding:  pgvector.NewVector(r.Embedding),
		}
	}
	_, err := s.db.NewInsert().
		Model(&docs).
		On("CONFLICT (collection, id) DO UPDATE").
		Set("content = EXCLUDED.content").
		Set("metadata = EXCLUDED.metadata").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}
	return nil
}

// Query orders by cosine distance (<=>), ties by id.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, k int) ([]vectorstore.Match, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}
	if err := s.ensureCollection(ctx, collection); err != nil {
		return nil, err
	}

	q := pgvector.NewVector(vector)
	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		Column("id", "content", "metadata").
		ColumnExpr("embedding <=> ? AS distance", q).
		Where("collection = ?", collection).
		OrderExpr("embedding <=> ?", q).
		OrderExpr("id").
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	matches := make([]vectorstore.Match, len(docs))
	for i, d := range docs {
		matches[i] = vectorstore.Match{
			ID:       d.ID,
			Document: d.Content,
			Metadata: d.Metadata,
			Distance: d.Distance,
		}
	}
	return matches, nil
}

func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.ensureCollection(ctx, collection); err != nil {
		return 0, err
	}
	return s.db.NewSelect().Model((*Document)(nil)).Where("collection = ?", collection).Count(ctx)
}

// drop collection and its documents
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	_, err := s.db.NewDelete().Model((*Collection)(nil)).Where("name = ?", name).Exec(ctx)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
