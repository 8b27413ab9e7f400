package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-rag/internal/chromemdb"
	"textbook-rag/internal/config"
	"textbook-rag/internal/models"
	"textbook-rag/internal/vectorstore"
)

type axisEmbedder struct{}

// vector counts a, b and c; the trailing 1 keeps it non-zero.
func (axisEmbedder) vector(text string) []float32 {
	v := []float32{0, 0, 0, 1}
	for _, r := range text {
		switch r {
		case 'a':
			v[0]++
		case 'b':
			v[1]++
		case 'c':
			v[2]++
		}
	}
	return v
}

func (e axisEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e axisEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

type fakeGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.answer, g.err
}

func (g *fakeGenerator) Model() string { return "test-model" }

func newIndex(t *testing.T) *chromemdb.VectorDBManager {
	t.Helper()
	ctx := context.Background()
	index, err := chromemdb.NewVectorDBManager(chromemdb.Options{InMemory: true})
	require.NoError(t, err)

	var emb axisEmbedder
	record := func(id, doc, page string) vectorstore.Record {
		meta := map[string]string{models.MetaTextbookTitle: "Математика 5", models.MetaPage: page}
		return vectorstore.Record{ID: id, Document: doc, Embedding: emb.vector(doc), Metadata: meta}
	}
	require.NoError(t, index.GetOrCreateCollection(ctx, "textbook_mathematics_5"))
	require.NoError(t, index.Upsert(ctx, "textbook_mathematics_5", []vectorstore.Record{
		record("m1", "aaaa", "3"),
		record("m2", "bbbb", "4"),
		record("m3", "cccc", "5"),
	}))
	return index
}

func TestSearchRelevantChunks(t *testing.T) {
	ctx := context.Background()
	r := NewRAG(newIndex(t), axisEmbedder{}, &fakeGenerator{}, config.Defaults())

	chunks, err := r.SearchRelevantChunks(ctx, "bbb", "Математика", 5, 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "m2", chunks[0].ID)
	assert.Equal(t, "bbbb", chunks[0].Document)
	assert.Equal(t, "4", chunks[0].Page())
	assert.LessOrEqual(t, chunks[0].Distance, chunks[1].Distance)

	// fewer documents than requested
	chunks, err = r.SearchRelevantChunks(ctx, "bbb", "mathematics", 5, 10)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestSearchRelevantChunks_Deterministic(t *testing.T) {
	ctx := context.Background()
	r := NewRAG(newIndex(t), axisEmbedder{}, &fakeGenerator{}, config.Defaults())

	ids := func() []string {
		chunks, err := r.SearchRelevantChunks(ctx, "abc", "mathematics", 5, 3)
		require.NoError(t, err)
		out := make([]string, len(chunks))
		for i, c := range chunks {
			out[i] = c.ID
		}
		return out
	}
	first := ids()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ids())
	}
}

func TestSearchRelevantChunks_MissingCollection(t *testing.T) {
	r := NewRAG(newIndex(t), axisEmbedder{}, &fakeGenerator{}, config.Defaults())

	_, err := r.SearchRelevantChunks(context.Background(), "когда?", "history", 7, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)

	_, err = r.AnswerQuestion(context.Background(), "когда?", "history", 7, 3, false)
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestSearchRelevantChunks_InvalidN(t *testing.T) {
	r := NewRAG(newIndex(t), axisEmbedder{}, &fakeGenerator{}, config.Defaults())
	_, err := r.SearchRelevantChunks(context.Background(), "a", "mathematics", 5, 0)
	assert.ErrorContains(t, err, "at least 1")
}

func TestCreatePrompt(t *testing.T) {
	chunks := []models.RetrievedChunk{
		{ID: "1", Document: "Первый фрагмент", Metadata: map[string]string{models.MetaTextbookTitle: "История 6", models.MetaPage: "12"}},
		{ID: "2", Document: "Второй фрагмент", Metadata: map[string]string{}},
	}

	got := CreatePrompt("Кто правил?", chunks, 6, "history")

	assert.Contains(t, got, "grade 6 student studying \"history\"")
	assert.Contains(t, got, "[Source 1]\nTextbook: История 6\nPage: 12\nContent:\nПервый фрагмент\n")
	assert.Contains(t, got, "[Source 2]\nTextbook: Unknown\nPage: ?\nContent:\nВторой фрагмент\n")
	assert.Less(t, strings.Index(got, "[Source 1]"), strings.Index(got, "[Source 2]"))
	assert.Contains(t, got, "STUDENT QUESTION:\nКто правил?")
	assert.Contains(t, got, "2. Explain at a level suitable for grade 6")
	assert.True(t, strings.HasSuffix(got, "ANSWER:"))
	assert.Equal(t, got, CreatePrompt("Кто правил?", chunks, 6, "history"))
}

func TestAnswerQuestion(t *testing.T) {
	gen := &fakeGenerator{answer: "Ответ со ссылкой на страницу 4"}
	r := NewRAG(newIndex(t), axisEmbedder{}, gen, config.Defaults())

	res, err := r.AnswerQuestion(context.Background(), "bbb", "математика", 5, 2, true)
	require.NoError(t, err)

	assert.Equal(t, "bbb", res.Query)
	assert.Equal(t, "Ответ со ссылкой на страницу 4", res.Answer)
	assert.Equal(t, models.AnswerMetadata{Subject: "mathematics", Grade: 5, Model: "test-model", ChunksUsed: 2}, res.Metadata)

	require.Len(t, res.Sources, 2)
	assert.Equal(t, "4", res.Sources[0].Page)
	assert.Equal(t, "Математика 5", res.Sources[0].Textbook)
	assert.InDelta(t, 1.0, res.Sources[0].Relevance, 0.01)
	assert.GreaterOrEqual(t, res.Sources[0].Relevance, res.Sources[1].Relevance)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Content:\nbbbb")
}

func TestAnswerQuestion_GenerationFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model not loaded")}
	r := NewRAG(newIndex(t), axisEmbedder{}, gen, config.Defaults())

	res, err := r.AnswerQuestion(context.Background(), "abc", "mathematics", 5, 3, false)
	require.NoError(t, err)
	assert.Equal(t, "Error generating answer: model not loaded", res.Answer)
	assert.Len(t, res.Sources, 3)
	assert.Equal(t, 3, res.Metadata.ChunksUsed)
}
