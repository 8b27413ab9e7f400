package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-rag/internal/config"
	"textbook-rag/internal/models"
)

type fakeEmbedder struct {
	calls   int
	short   bool
	failure error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failure != nil {
		return nil, f.failure
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, []float32{float32(len(t)), 1})
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{float32(len(text)), 1}, nil
}

func defaultDisplay() config.DisplayConfig {
	return config.Defaults().Embedding.Display
}

func TestDisplayText_Math(t *testing.T) {
	chapter := 1
	chunk := models.Chunk{
		ChunkID: "mathematics_5_ch1_p3_1",
		Metadata: models.ChunkMetadata{
			Page: 3, Chapter: &chapter, Subject: "mathematics", Grade: 5,
			ContentType: models.ContentTypeTask, TaskNumber: 1,
		},
		Content: models.ChunkContent{
			Text:     "Решите уравнения",
			Formulas: []string{"x+1=2", "y-1=0", "2z=4", "a=b"},
		},
	}

	got := DisplayText(chunk, defaultDisplay())
	want := strings.Join([]string{
		"Subject: mathematics",
		"Grade: 5",
		"Page: 3",
		"Chapter: 1",
		"Content: Решите уравнения",
		"Formulas: x+1=2, y-1=0, 2z=4",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestDisplayText_HistoryCaps(t *testing.T) {
	chunk := models.Chunk{
		Metadata: models.ChunkMetadata{
			Page: 10, Subject: "history", Grade: 6,
			Dates:             []string{"1 г.", "2 г.", "3 г.", "4 г.", "5 г.", "6 г."},
			HistoricalFigures: []string{"Иван Грозный", "Пётр Первый", "Александр Невский", "Дмитрий Донской"},
		},
		Content: models.ChunkContent{Text: strings.Repeat("я", 600)},
	}

	got := DisplayText(chunk, defaultDisplay())
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "Content: "+strings.Repeat("я", 500), lines[3])
	assert.Equal(t, "Dates: 1 г., 2 г., 3 г., 4 г., 5 г.", lines[4])
	assert.Equal(t, "Historical figures: Иван Грозный, Пётр Первый, Александр Невский", lines[5])
	assert.NotContains(t, got, "Chapter:")
	assert.NotContains(t, got, "Formulas:")
}

func TestEmbedAll(t *testing.T) {
	ctx := context.Background()

	vectors, err := EmbedAll(ctx, &fakeEmbedder{}, []string{"a", "bb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 1}}, vectors)

	_, err = EmbedAll(ctx, &fakeEmbedder{short: true}, []string{"a", "bb"})
	assert.ErrorContains(t, err, "1 vectors for 2 texts")

	_, err = EmbedAll(ctx, &fakeEmbedder{failure: errors.New("boom")}, []string{"a"})
	assert.ErrorContains(t, err, "boom")

	f := &fakeEmbedder{}
	vectors, err = EmbedAll(ctx, f, nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
	assert.Zero(t, f.calls)
}

func TestRateLimited_PassesThroughAndHonoursContext(t *testing.T) {
	inner := &fakeEmbedder{}
	limited := NewRateLimited(inner, 1)

	v, err := limited.EmbedQuery(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, v)

	// the single token is spent, a cancelled context must not wait a full second
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = limited.EmbedDocuments(ctx, []string{"x"})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestEmbeddingFunc(t *testing.T) {
	fn := EmbeddingFunc(&fakeEmbedder{})
	v, err := fn(context.Background(), "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1}, v)
}

func TestNewEmbedder_UnknownProvider(t *testing.T) {
	_, err := NewEmbedder(&config.EmbeddingConfig{Provider: "word2vec", BatchSize: 1})
	assert.Error(t, err)
}
