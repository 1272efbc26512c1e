package repository

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/okian/ingestor/internal/domain/mapper"
	"github.com/okian/ingestor/pkg/logger"
)

// Dump writes documents as newline-delimited JSON instead of indexing them.
// Each line carries the target index next to the normalised document.
type Dump struct {
	mu     sync.Mutex
	f      *os.File
	w      *bufio.Writer
	logger logger.Logger
	closed bool
}

type dumpLine struct {
	Index  string `json:"_index"`
	Source any    `json:"_source"`
}

// NewDump creates or truncates the file at path.
func NewDump(path string, opts ...Option) (*Dump, error) {
	o := apply("dump", opts)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}
	return &Dump{f: f, w: bufio.NewWriter(f), logger: o.logger}, nil
}

// Bulk appends docs to the dump file.
func (d *Dump) Bulk(ctx context.Context, index string, docs []any) (BulkResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var result BulkResult
	if d.closed {
		return result, ErrClosed
	}
	enc := json.NewEncoder(d.w)
	for _, doc := range docs {
		normalised, err := toPortable(doc)
		if err != nil {
			result.fail(err.Error())
			continue
		}
		if err := enc.Encode(dumpLine{Index: index, Source: normalised}); err != nil {
			result.fail(err.Error())
			continue
		}
		result.Indexed++
	}
	if err := d.w.Flush(); err != nil {
		return result, fmt.Errorf("flush dump file: %w", err)
	}
	d.logger.Debug(ctx, "dumped batch", logger.String("index", index), logger.Int("docs", result.Indexed))
	return result, nil
}

// Close flushes and closes the file.
func (d *Dump) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if err := d.w.Flush(); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}

// toPortable converts a document into plain JSON values. Native arrays and
// nil slices inside map documents are normalized before encoding; numbers are
// then coerced with mapper.Scalar so ids and counts keep their integer form.
func toPortable(doc any) (any, error) {
	raw, err := json.Marshal(mapper.Normalize(doc))
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return scalars(generic), nil
}

func scalars(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = scalars(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = scalars(e)
		}
		return t
	case json.Number:
		return mapper.Scalar(t.String())
	default:
		return v
	}
}
