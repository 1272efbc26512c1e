// Package loader submits document batches to the destination in one bulk
// write each. Failures are logged and reported, never retried.
package loader

import (
	"context"
	"time"

	"github.com/okian/ingestor/internal/adapters/repository"
	"github.com/okian/ingestor/pkg/logger"
	"github.com/okian/ingestor/pkg/metrics"
)

// Bulk status labels.
const (
	statusSuccess = "success"
	statusPartial = "partial"
	statusError   = "error"
)

// Sink accepts bulk writes. repository.Store and repository.Dump satisfy it.
type Sink interface {
	Bulk(ctx context.Context, index string, docs []any) (repository.BulkResult, error)
}

// Result is the outcome of one Load.
type Result struct {
	Index     string
	Submitted int
	Indexed   int
	Failed    int
	Errors    []string
	Err       error // request level failure; item failures only count in Failed
}

// OK reports whether every document was indexed.
func (r Result) OK() bool { return r.Err == nil && r.Failed == 0 }

// Loader wraps a Sink with logging and metrics.
type Loader struct {
	sink   Sink
	logger logger.Logger
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// New creates a Loader writing to sink.
func New(sink Sink, opts ...Option) *Loader {
	ld := &Loader{sink: sink, logger: logger.Get().Named("loader")}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load submits docs to index in a single bulk write. Empty batches are not
// submitted.
func (ld *Loader) Load(ctx context.Context, index string, docs []any) Result {
	res := Result{Index: index, Submitted: len(docs)}
	if len(docs) == 0 {
		return res
	}

	start := time.Now()
	br, err := ld.sink.Bulk(ctx, index, docs)
	latency := float64(time.Since(start).Milliseconds())

	res.Indexed, res.Failed, res.Errors = br.Indexed, br.Failed, br.Errors
	if err != nil {
		res.Err = err
		res.Failed = len(docs) - res.Indexed
		metrics.RecordBulk(index, statusError, latency)
		metrics.RecordFailed(index, res.Failed)
		ld.logger.Error(ctx, "bulk request failed",
			logger.String("index", index),
			logger.Int("docs", len(docs)),
			logger.Error(err),
		)
		return res
	}

	metrics.RecordIndexed(index, res.Indexed)
	if res.Failed > 0 {
		metrics.RecordBulk(index, statusPartial, latency)
		metrics.RecordFailed(index, res.Failed)
		ld.logger.Warn(ctx, "bulk completed with item errors",
			logger.String("index", index),
			logger.Int("indexed", res.Indexed),
			logger.Int("failed", res.Failed),
			logger.Any("errors", res.Errors),
		)
		return res
	}
	metrics.RecordBulk(index, statusSuccess, latency)
	ld.logger.Info(ctx, "bulk completed",
		logger.String("index", index),
		logger.Int("indexed", res.Indexed),
		logger.Float64("latency_ms", latency),
	)
	return res
}
