// Package vectorstore defines the vector index contract shared by the chromem-go and
// pgvector backends.
package vectorstore

import (
	"context"
	"errors"
	"sort"
)

// ErrCollectionNotFound means the collection was never built. Run the embed stage first.
var ErrCollectionNotFound = errors.New("collection not found")

type Record struct {
	ID        string
	Embedding []float32
	Document  string
	Metadata  map[string]string
}

// Match is a query hit. Distance is cosine distance in [0,2].
type Match struct {
	ID       string
	Document string
	Metadata map[string]string
	Distance float64
}

// Index stores records in named collections and answers nearest-neighbour queries.
type Index interface {
	// GetOrCreateCollection is idempotent.
	GetOrCreateCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, collection string, records []Record) error
	// Query returns at most k matches, nearest first.
	Query(ctx context.Context, collection string, vector []float32, k int) ([]Match, error)
	Count(ctx context.Context, collection string) (int, error)
	Close() error
}

// SortMatches orders by distance, then id, so equal distances come back in a stable order.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID < matches[j].ID
	})
}
