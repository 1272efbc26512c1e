package dedupe

import "github.com/okian/ingestor/pkg/logger"

type options struct {
	logger logger.Logger
}

// Option applies a configuration option to a gate.
type Option func(*options)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func apply(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("gate")
	}
	return o
}
