package repository

import (
	"net/http"

	"github.com/okian/ingestor/pkg/logger"
)

// Option applies a configuration option to a store.
type Option func(*options)

type options struct {
	addresses []string
	username  string
	password  string
	transport http.RoundTripper
	refresh   string
	logger    logger.Logger
}

// WithAddresses sets the Elasticsearch node URLs.
func WithAddresses(addrs ...string) Option {
	return func(o *options) {
		if len(addrs) > 0 {
			o.addresses = addrs
		}
	}
}

// WithBasicAuth sets Elasticsearch credentials.
func WithBasicAuth(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithTransport replaces the HTTP transport of the Elasticsearch client.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		if rt != nil {
			o.transport = rt
		}
	}
}

// WithRefresh sets the refresh parameter sent with bulk writes
// ("true", "false" or "wait_for").
func WithRefresh(refresh string) Option {
	return func(o *options) {
		o.refresh = refresh
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
	o := options{addresses: []string{"http://localhost:9200"}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get().Named(name)
	}
	return o
}
