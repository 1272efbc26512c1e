// Package repository holds the destination index stores.
package repository

import (
	"context"
	"encoding/json"
	"io"

	"github.com/okian/ingestor/internal/domain/model"
)

// maxItemErrors bounds the item errors kept on a BulkResult.
const maxItemErrors = 5

// BulkResult is the per-item outcome of one bulk write.
type BulkResult struct {
	Indexed int
	Failed  int
	Errors  []string // first few item errors
}

func (r *BulkResult) fail(reason string) {
	r.Failed++
	if len(r.Errors) < maxItemErrors {
		r.Errors = append(r.Errors, reason)
	}
}

// Store is a destination index.
type Store interface {
	// IndexExists reports whether index has been created.
	IndexExists(ctx context.Context, index string) (bool, error)
	// CreateIndex creates index with an optional JSON mapping. Creating an
	// existing index is not an error.
	CreateIndex(ctx context.Context, index string, mapping []byte) error
	// Bulk writes docs to index in one request.
	Bulk(ctx context.Context, index string, docs []any) (BulkResult, error)
	// Sample returns one arbitrary document of index. It returns
	// ErrIndexNotFound for a missing index and ErrNotFound for an empty one.
	Sample(ctx context.Context, index string) (map[string]any, error)
	// Count returns the number of documents matching all conditions.
	Count(ctx context.Context, index string, conds []model.Condition) (int64, error)
	Close() error
}

// decodeDocument decodes a stored document keeping numbers as json.Number.
func decodeDocument(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
