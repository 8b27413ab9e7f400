package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-rag/internal/models"
)

func testBook() models.TextbookMetadata {
	return models.TextbookMetadata{
		Title:   "Математика. 5 класс. Рабочая тетрадь. Часть 1",
		Author:  "Ткачёва М.В.",
		Year:    2023,
		Grade:   5,
		Subject: "mathematics",
		Part:    1,
	}
}

func TestChunkCollectionRoundTrip(t *testing.T) {
	dir := t.TempDir()
	chapter := 2
	collection := &models.ChunkCollection{
		Metadata: testBook(),
		Chunks: []models.Chunk{
			{
				ChunkID: "mathematics_5_ch2_p3_1",
				Metadata: models.ChunkMetadata{
					Page:          3,
					ContentType:   models.ContentTypeTask,
					Chapter:       &chapter,
					TaskNumber:    1,
					TextbookTitle: "Математика. 5 класс. Рабочая тетрадь. Часть 1",
					Grade:         5,
					Subject:       "mathematics",
					Author:        "Ткачёва М.В.",
				},
				Content: models.ChunkContent{
					Text:     "Решите: x+5=12. Сравните <a> & <b>",
					Formulas: []string{"x+5=12"},
				},
			},
			{
				ChunkID: "mathematics_5_ch2_p3_2",
				Metadata: models.ChunkMetadata{
					Page:              3,
					ContentType:       models.ContentTypeText,
					Dates:             []string{"1242 г."},
					HistoricalFigures: []string{"Иван Грозный"},
				},
				Content: models.ChunkContent{Text: "В 1242 г. произошло событие."},
			},
		},
	}

	path, err := WriteChunkCollection(dir, collection)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mathematics_5_chunks.json"), path)
	assert.Equal(t, 2, collection.TotalChunks)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Иван Грозный", "non-ASCII text must be stored unescaped")
	assert.Contains(t, string(raw), "<a> & <b>")
	assert.Contains(t, string(raw), "\n  \"chunks\"", "document must be indented")

	got, err := ReadChunkCollection(path)
	require.NoError(t, err)
	assert.Equal(t, collection, got)
}

func TestChunkCollection_TextChunksKeepEmptyLists(t *testing.T) {
	dir := t.TempDir()
	collection := &models.ChunkCollection{
		Metadata: testBook(),
		Chunks: []models.Chunk{
			{
				ChunkID:  "history_6_p4_1",
				Metadata: models.ChunkMetadata{Page: 4, ContentType: models.ContentTypeText},
				Content:  models.ChunkContent{Text: "Без дат и имён."},
			},
			{
				ChunkID:  "history_6_p4_2",
				Metadata: models.ChunkMetadata{Page: 4, ContentType: models.ContentTypeTask, TaskNumber: 1},
				Content:  models.ChunkContent{Text: "1. Задание."},
			},
		},
	}
	path, err := WriteChunkCollection(dir, collection)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Regexp(t, `"dates":\s*\[\s*\]`, string(raw))
	assert.Regexp(t, `"historical_figures":\s*\[\s*\]`, string(raw))
	assert.Equal(t, 1, strings.Count(string(raw), `"dates"`), "task chunks carry no dates")

	got, err := ReadChunkCollection(path)
	require.NoError(t, err)
	assert.Equal(t, []string{}, got.Chunks[0].Metadata.Dates)
	assert.Equal(t, []string{}, got.Chunks[0].Metadata.HistoricalFigures)
	assert.Nil(t, got.Chunks[1].Metadata.Dates)
}

func TestWriteChunkCollection_Empty(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteChunkCollection(dir, &models.ChunkCollection{Metadata: testBook()})
	require.NoError(t, err)

	got, err := ReadChunkCollection(path)
	require.NoError(t, err)
	assert.Empty(t, got.Chunks)
	assert.Equal(t, 0, got.TotalChunks)
}

func TestReadChunkCollection_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadChunkCollection(filepath.Join(dir, "missing_chunks.json"))
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken_chunks.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"chunks": [`), 0o644))
	_, err = ReadChunkCollection(broken)
	assert.Error(t, err)

	mismatch := filepath.Join(dir, "mismatch_chunks.json")
	require.NoError(t, os.WriteFile(mismatch, []byte(`{"metadata":{},"chunks":[],"total_chunks":4}`), 0o644))
	_, err = ReadChunkCollection(mismatch)
	assert.ErrorContains(t, err, "total_chunks")
}

func TestPageResultRoundTrip(t *testing.T) {
	dir := t.TempDir()
	page := &models.PageResult{
		Text: "1. Заполните таблицу\n2. Вычислите",
		OCRResults: []models.OCRLine{
			{
				BBox:       [4][2]float64{{10, 20}, {110, 20}, {110, 40}, {10, 40}},
				Text:       "1. Заполните таблицу",
				Confidence: 0.93,
			},
		},
		Dimensions: models.Dimensions{Width: 595.28, Height: 841.89},
	}

	path, err := WritePageResult(dir, 7, page)
	require.NoError(t, err)
	assert.Equal(t, "page_007.json", filepath.Base(path))

	got, err := ReadPageResult(path)
	require.NoError(t, err)
	assert.Equal(t, page, got)
}

func TestListPageFiles_Ordered(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []int{12, 3, 100, 0} {
		_, err := WritePageResult(dir, p, &models.PageResult{Text: "x"})
		require.NoError(t, err)
	}
	_, err := WriteSummary(dir, &models.RunSummary{Metadata: testBook(), TotalPagesProcessed: 4, OutputDir: dir})
	require.NoError(t, err)

	files, err := ListPageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 4)

	var pages []int
	for _, f := range files {
		n, err := PageNumberFromFile(f)
		require.NoError(t, err)
		pages = append(pages, n)
	}
	assert.Equal(t, []int{0, 3, 12, 100}, pages)

	summary, err := ReadSummary(dir)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalPagesProcessed)
}

func TestListPageFiles_NumericPastThreeDigits(t *testing.T) {
	dir := t.TempDir()
	for _, p := range []int{1000, 101, 999, 5} {
		_, err := WritePageResult(dir, p, &models.PageResult{Text: "x"})
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page_extra.json"), []byte("{}"), 0o644))

	files, err := ListPageFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"page_005.json", "page_101.json", "page_999.json", "page_1000.json", "page_extra.json"}, names)
}

func TestPageNumberFromFile(t *testing.T) {
	tests := []struct {
		path    string
		want    int
		wantErr bool
	}{
		{path: "ocr/page_000.json", want: 0},
		{path: "page_042.json", want: 42},
		{path: "summary.json", wantErr: true},
		{path: "page_abc.json", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := PageNumberFromFile(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
