// Package indexer loads chunk collections into the vector index.
package indexer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"textbook-rag/internal/config"
	"textbook-rag/internal/embedding"
	"textbook-rag/internal/models"
	"textbook-rag/internal/store"
	"textbook-rag/internal/vectorstore"
)

type Indexer struct {
	index    vectorstore.Index
	embedder embeddings.Embedder
	cfg      *config.Config
}

func NewIndexer(index vectorstore.Index, embedder embeddings.Embedder, cfg *config.Config) *Indexer {
	return &Indexer{index: index, embedder: embedder, cfg: cfg}
}

// IndexAll indexes every *_chunks.json in dir and returns the collections it touched.
func (ix *Indexer) IndexAll(ctx context.Context, dir string) ([]string, error) {
	files, err := store.ListChunkFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no chunk files in %s, run the structure stage first", dir)
	}
	return ix.IndexFiles(ctx, files)
}

func (ix *Indexer) IndexFiles(ctx context.Context, files []string) ([]string, error) {
	var collections []string
	for _, f := range files {
		name, err := ix.IndexFile(ctx, f)
		if err != nil {
			return collections, err
		}
		collections = append(collections, name)
	}
	return collections, nil
}

// IndexFile embeds one chunk collection and upserts it into its subject/grade collection.
func (ix *Indexer) IndexFile(ctx context.Context, path string) (string, error) {
	log.Info().Str("file", path).Msg("Indexing chunk file")

	collection, err := store.ReadChunkCollection(path)
	if err != nil {
		return "", err
	}
	name := models.CollectionName(
		ix.cfg.VectorStore.CollectionPrefix,
		models.ParseSubject(collection.Metadata.Subject),
		collection.Metadata.Grade,
	)
	if err := ix.index.GetOrCreateCollection(ctx, name); err != nil {
		return "", err
	}
	if len(collection.Chunks) == 0 {
		log.Warn().Str("collection", name).Msg("Chunk file is empty, nothing to index")
		return name, nil
	}

	texts := make([]string, len(collection.Chunks))
	for i, c := range collection.Chunks {
		texts[i] = embedding.DisplayText(c, ix.cfg.Embedding.Display)
	}

	log.Info().Int("chunks", len(texts)).Msg("Creating embeddings")
	vectors, err := embedding.EmbedAll(ctx, ix.embedder, texts)
	if err != nil {
		return "", err
	}

	records := make([]vectorstore.Record, len(collection.Chunks))
	for i, c := range collection.Chunks {
		records[i] = vectorstore.Record{
			ID:        c.ChunkID,
			Embedding: vectors[i],
			Document:  texts[i],
			Metadata:  CreateMetadata(c),
		}
	}

	batch := ix.cfg.VectorStore.UpsertBatchSize
	for start := 0; start < len(records); start += batch {
		end := min(start+batch, len(records))
		if err := ix.index.Upsert(ctx, name, records[start:end]); err != nil {
			return "", fmt.Errorf("failed to store batch %d-%d in %s: %w", start, end, name, err)
		}
		log.Debug().Int("from", start).Int("to", end).Str("collection", name).Msg("Stored batch")
	}

	log.Info().Int("chunks", len(records)).Str("collection", name).Msg("Chunks loaded")
	return name, nil
}

// CreateMetadata flattens chunk metadata for the vector index. Lists are joined with ", ".
func CreateMetadata(c models.Chunk) map[string]string {
	meta := c.Metadata
	m := map[string]string{
		models.MetaChunkID:       c.ChunkID,
		models.MetaPage:          strconv.Itoa(meta.Page),
		models.MetaContentType:   meta.ContentType,
		models.MetaTextbookTitle: meta.TextbookTitle,
		models.MetaGrade:         strconv.Itoa(meta.Grade),
		models.MetaSubject:       meta.Subject,
		models.MetaAuthor:        meta.Author,
	}
	if meta.Chapter != nil {
		m[models.MetaChapter] = strconv.Itoa(*meta.Chapter)
	}
	if meta.ContentType == models.ContentTypeTask {
		m[models.MetaTaskNumber] = strconv.Itoa(meta.TaskNumber)
	}
	if len(meta.Dates) > 0 {
		m[models.MetaDates] = strings.Join(meta.Dates, ", ")
	}
	if len(meta.HistoricalFigures) > 0 {
		m[models.MetaHistoricalFigures] = strings.Join(meta.HistoricalFigures, ", ")
	}
	return m
}
