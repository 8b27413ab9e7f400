package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"textbook-rag/internal/vectorstore"
)

func TestLoadBook(t *testing.T) {
	book, err := loadBook(filepath.Join("..", "configs", "books", "tkacheva_math_5_part1.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Ткачёва М.В.", book.Author)
	assert.Equal(t, 5, book.Grade)
	assert.Equal(t, "математика", book.Subject)
	assert.Equal(t, 1, book.Part)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: Без класса\nsubject: история\n"), 0o644))
	_, err = loadBook(path)
	assert.ErrorContains(t, err, "grade")

	_, err = loadBook(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestUserError(t *testing.T) {
	err := userError(fmt.Errorf("wrapped: %w", vectorstore.ErrCollectionNotFound), "history", 6)
	assert.EqualError(t, err, "no indexed textbook for history, grade 6. Run `textbook-rag embed` first")

	boom := errors.New("boom")
	err = userError(boom, "history", 6)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "unexpected error")
}
