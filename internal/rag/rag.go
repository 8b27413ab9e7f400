// Package rag retrieves textbook chunks for a question and assembles the cited answer.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"textbook-rag/internal/config"
	"textbook-rag/internal/models"
	"textbook-rag/internal/vectorstore"
)

// Generator is the external text generation runtime.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

type RAG struct {
	index     vectorstore.Index
	embedder  embeddings.Embedder
	generator Generator
	cfg       *config.Config
}

func NewRAG(index vectorstore.Index, embedder embeddings.Embedder, generator Generator, cfg *config.Config) *RAG {
	return &RAG{index: index, embedder: embedder, generator: generator, cfg: cfg}
}

// SearchRelevantChunks returns up to n chunks nearest to query from the subject/grade collection.
// A collection that was never indexed yields an error wrapping vectorstore.ErrCollectionNotFound.
func (r *RAG) SearchRelevantChunks(ctx context.Context, query, subject string, grade, n int) ([]models.RetrievedChunk, error) {
	if n < 1 {
		return nil, fmt.Errorf("n_results must be at least 1, got %d", n)
	}
	name := models.CollectionName(r.cfg.VectorStore.CollectionPrefix, models.ParseSubject(subject), grade)

	if _, err := r.index.Count(ctx, name); err != nil {
		return nil, fmt.Errorf("textbook %s for grade %d: %w", subject, grade, err)
	}

	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := r.index.Query(ctx, name, vector, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}

	chunks := make([]models.RetrievedChunk, len(matches))
	for i, m := range matches {
		chunks[i] = models.RetrievedChunk{
			ID:       m.ID,
			Document: m.Document,
			Metadata: m.Metadata,
			Distance: m.Distance,
		}
	}
	return chunks, nil
}

// CreatePrompt renders the retrieved chunks, in order, as numbered sources inside the answer instructions.
func CreatePrompt(query string, chunks []models.RetrievedChunk, grade int, subject string) string {
	var sb strings.Builder
	for i, c := range chunks {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, models.SourceBlockTemplate, i+1, c.Textbook(), c.Page(), c.Document)
	}
	return fmt.Sprintf(models.AnswerPromptTemplate, grade, subject, sb.String(), query, grade)
}

// AnswerQuestion runs retrieval and generation. Generation faults do not fail the call:
// the answer text carries the failure instead.
func (r *RAG) AnswerQuestion(ctx context.Context, query, subject string, grade, n int, verbose bool) (*models.AnswerResult, error) {
	canonical := models.ParseSubject(subject).String()
	if verbose {
		log.Info().Str("subject", canonical).Int("grade", grade).Str("query", query).Msg("Searching textbook")
	}

	chunks, err := r.SearchRelevantChunks(ctx, query, subject, grade, n)
	if err != nil {
		return nil, err
	}
	if verbose {
		log.Info().Int("chunks", len(chunks)).Msg("Found relevant fragments")
		for i, c := range chunks {
			log.Info().
				Int("source", i+1).
				Str("textbook", c.Textbook()).
				Str("page", c.Page()).
				Float64("relevance", c.Relevance()).
				Msg("Fragment")
		}
	}

	prompt := CreatePrompt(query, chunks, grade, canonical)
	if verbose {
		log.Info().Str("model", r.generator.Model()).Msg("Generating answer")
	}

	answer, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Str("model", r.generator.Model()).Msg("Generation failed")
		answer = fmt.Sprintf(models.GenerationErrorTemplate, err)
	}

	sources := make([]models.Source, len(chunks))
	for i, c := range chunks {
		sources[i] = models.Source{
			Textbook:  c.Textbook(),
			Page:      c.Page(),
			Relevance: c.Relevance(),
		}
	}

	return &models.AnswerResult{
		Query:   query,
		Answer:  answer,
		Sources: sources,
		Metadata: models.AnswerMetadata{
			Subject:    canonical,
			Grade:      grade,
			Model:      r.generator.Model(),
			ChunksUsed: len(chunks),
		},
	}, nil
}
