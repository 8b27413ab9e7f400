package render

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-rag/internal/models"
)

func sampleResult() *models.AnswerResult {
	return &models.AnswerResult{
		Query:  "Как сложить дроби?",
		Answer: "Приведите дроби к **общему знаменателю**.\n\n<script>alert(1)</script>",
		Sources: []models.Source{
			{Textbook: "Математика. 5 класс", Page: "12", Relevance: 0.875},
			{Textbook: "Unknown", Page: "?", Relevance: 0.5},
		},
		Metadata: models.AnswerMetadata{Subject: "mathematics", Grade: 5, Model: "qwen3:8b", ChunksUsed: 2},
	}
}

func TestText(t *testing.T) {
	out := Text(sampleResult())
	assert.Contains(t, out, "Question: Как сложить дроби?\n")
	assert.Contains(t, out, "Answer:\nПриведите дроби")
	assert.Contains(t, out, "  1. Математика. 5 класс, page 12 (relevance: 0.88)\n")
	assert.Contains(t, out, "  2. Unknown, page ? (relevance: 0.50)\n")
}

func TestJSON(t *testing.T) {
	out, err := JSON(sampleResult())
	require.NoError(t, err)
	assert.Contains(t, out, `"chunks_used": 2`)
	assert.Contains(t, out, "Математика. 5 класс")

	var back models.AnswerResult
	require.NoError(t, sonic.UnmarshalString(out, &back))
	assert.Equal(t, *sampleResult(), back)
}

func TestHTML(t *testing.T) {
	out, err := HTML(sampleResult())
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Как сложить дроби?</h2>")
	assert.Contains(t, out, "<strong>общему знаменателю</strong>")
	assert.Contains(t, out, "<ol>")
	assert.Contains(t, out, "<li>Математика. 5 класс, page 12 (relevance: 0.88)</li>")
	assert.NotContains(t, out, "<script>")
}

func TestRender(t *testing.T) {
	out, err := Render("", sampleResult())
	require.NoError(t, err)
	assert.Equal(t, Text(sampleResult()), out)

	_, err = Render("yaml", sampleResult())
	assert.ErrorContains(t, err, "unknown output format")
}
