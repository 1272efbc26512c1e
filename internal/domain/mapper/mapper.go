// Package mapper reshapes raw GTD and GDELT records into index documents.
package mapper

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/ingestor/pkg/logger"
	"github.com/okian/ingestor/pkg/metrics"
	"github.com/pkg/errors"
)

// Mapper converts raw records into documents. It is safe for concurrent use
// once constructed; nothing in it is mutated after New.
type Mapper struct {
	stopwords *Stopwords
	fill      float64
	fillText  string
	logger    logger.Logger
}

// Option applies a configuration option to the Mapper.
type Option func(*Mapper)

// WithStopwords sets the stopword set applied to news phrases.
func WithStopwords(s *Stopwords) Option {
	return func(m *Mapper) {
		if s != nil {
			m.stopwords = s
		}
	}
}

// WithFill sets the sentinel written into blank numeric and text cells.
func WithFill(value float64, text string) Option {
	return func(m *Mapper) {
		m.fill = value
		m.fillText = text
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Mapper) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Mapper using the English stopword list and a zero fill.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		stopwords: NewStopwords(nil, nil),
		fillText:  "0",
		logger:    logger.Get().Named("mapper"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fill returns the numeric sentinel.
func (m *Mapper) Fill() float64 { return m.fill }

// FillText returns the text sentinel.
func (m *Mapper) FillText() string { return m.fillText }

// guard runs fn for one record. Errors and panics are logged with a stack
// trace and reported as a dropped record.
func (m *Mapper) guard(ctx context.Context, kind string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.WithStack(fmt.Errorf("panic while mapping %s: %v", kind, r))
			m.logger.Error(ctx, "record mapping panicked", logger.String("kind", kind), logger.Stack(err))
			metrics.RecordDocumentDropped(kind, "panic")
			ok = false
		}
	}()
	if err := fn(); err != nil {
		m.logger.Error(ctx, "record mapping failed",
			logger.String("kind", kind),
			logger.Error(err),
			logger.Stack(err),
		)
		metrics.RecordDocumentDropped(kind, "malformed")
		return false
	}
	return true
}

func (m *Mapper) numericFill() string {
	return strconv.FormatFloat(m.fill, 'f', -1, 64)
}

// accepted records one mapped document.
func accepted(kind string) {
	metrics.RecordDocumentMapped(kind)
}

