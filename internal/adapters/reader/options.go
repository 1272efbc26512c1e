// Package reader streams large inputs in bounded windows.
package reader

import "github.com/okian/ingestor/pkg/logger"

// Source encodings.
const (
	EncodingUTF8   = "utf8"
	EncodingLatin1 = "latin1"
)

// DefaultBatchSize is the number of rows per CSV window.
const DefaultBatchSize = 50000

type options struct {
	batchSize int
	encoding  string
	logger    logger.Logger
}

// Option applies a configuration option to a reader.
type Option func(*options)

// WithBatchSize sets the window size. Non-positive values are ignored.
func WithBatchSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithEncoding selects the source character set, utf8 or latin1.
func WithEncoding(enc string) Option {
	return func(o *options) {
		if enc != "" {
			o.encoding = enc
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func apply(name string, opts []Option) options {
	o := options{
		batchSize: DefaultBatchSize,
		encoding:  EncodingUTF8,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named(name)
	}
	return o
}
