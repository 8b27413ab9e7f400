// Package store reads and writes the JSON documents exchanged between pipeline stages:
// per-page OCR results, the OCR run summary and chunk collections.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"textbook-rag/internal/helper"
	"textbook-rag/internal/models"
)

const (
	pagePrefix      = "page_"
	summaryFileName = "summary.json"
	chunkFileSuffix = "_chunks.json"
)

var codec = sonic.ConfigDefault

// PageFileName is the file holding the OCR result of the 0-based page index.
func PageFileName(page int) string {
	return fmt.Sprintf("%s%03d.json", pagePrefix, page)
}

// PageNumberFromFile parses the page index out of a page_NNN.json path.
func PageNumberFromFile(path string) (int, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if !strings.HasPrefix(name, pagePrefix) {
		return 0, fmt.Errorf("not a page file: %s", path)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(name, pagePrefix))
	if err != nil {
		return 0, fmt.Errorf("invalid page number in %s: %w", path, err)
	}
	return n, nil
}

func WritePageResult(dir string, page int, result *models.PageResult) (string, error) {
	path := filepath.Join(dir, PageFileName(page))
	return path, writeJSON(path, result)
}

func ReadPageResult(path string) (*models.PageResult, error) {
	var result models.PageResult
	if err := readJSON(path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListPageFiles returns the page files in dir in page order. Names without a
// parsable page number sort last, by name.
func ListPageFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, pagePrefix+"*.json"))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool {
		a, errA := PageNumberFromFile(files[i])
		b, errB := PageNumberFromFile(files[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil || errB == nil:
			return errA == nil
		}
		return files[i] < files[j]
	})
	return files, nil
}

func WriteSummary(dir string, summary *models.RunSummary) (string, error) {
	path := filepath.Join(dir, summaryFileName)
	return path, writeJSON(path, summary)
}

func ReadSummary(dir string) (*models.RunSummary, error) {
	var summary models.RunSummary
	if err := readJSON(filepath.Join(dir, summaryFileName), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// WriteChunkCollection writes the collection to dir under its subject/grade file name.
// TotalChunks is recomputed from the chunk list.
func WriteChunkCollection(dir string, collection *models.ChunkCollection) (string, error) {
	collection.TotalChunks = len(collection.Chunks)
	if collection.Chunks == nil {
		collection.Chunks = []models.Chunk{}
	}
	subject := models.ParseSubject(collection.Metadata.Subject)
	path := filepath.Join(dir, models.ChunkFileName(subject, collection.Metadata.Grade))
	return path, writeJSON(path, collection)
}

func ReadChunkCollection(path string) (*models.ChunkCollection, error) {
	var collection models.ChunkCollection
	if err := readJSON(path, &collection); err != nil {
		return nil, err
	}
	if collection.TotalChunks != len(collection.Chunks) {
		return nil, fmt.Errorf("corrupt chunk file %s: total_chunks is %d but %d chunks present",
			path, collection.TotalChunks, len(collection.Chunks))
	}
	return &collection, nil
}

func ListChunkFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+chunkFileSuffix))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func writeJSON(path string, v any) error {
	if err := helper.CreateFolder(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := codec.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
