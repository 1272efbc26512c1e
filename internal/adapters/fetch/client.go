// Package fetch retrieves remote GDELT files: one attempt per URL, paced by a
// rate limit.
package fetch

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/ingestor/pkg/logger"
	"github.com/okian/ingestor/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultRate      = 2.0
	defaultUserAgent = "ingestor/1.0"
)

// Client is a polite single-attempt HTTP getter.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithTimeout bounds each request including the body read.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRate limits requests per second. Zero or less disables the limit.
func WithRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: defaultTimeout},
		limiter:   rate.NewLimiter(rate.Limit(defaultRate), 1),
		userAgent: defaultUserAgent,
		logger:    logger.Get().Named("fetch"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open issues one GET and returns the body. Non-2xx responses are returned as
// *StatusError (errors.Is ErrStatus). The caller closes the body; closing it
// records the transferred bytes for source.
func (c *Client) Open(ctx context.Context, source, url string) (io.ReadCloser, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}
	c.logger.Debug(ctx, "fetched", logger.String("url", url), logger.Int("status", resp.StatusCode))
	return &countingBody{rc: resp.Body, source: source, start: start}, nil
}

// OpenGzip opens a gzip-compressed remote file as a decompressed stream.
func (c *Client) OpenGzip(ctx context.Context, source, url string) (io.ReadCloser, error) {
	body, err := c.Open(ctx, source, url)
	if err != nil {
		return nil, err
	}
	zr, err := gzip.NewReader(body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("gunzip %s: %w", url, err)
	}
	return &gzipBody{Reader: zr, body: body}, nil
}

// Download stores the remote file in dir under the URL's base name and
// returns its path.
func (c *Client) Download(ctx context.Context, source, url, dir string) (string, error) {
	body, err := c.Open(ctx, source, url)
	if err != nil {
		return "", err
	}
	defer body.Close()

	path := filepath.Join(dir, filepath.Base(url))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

type countingBody struct {
	rc     io.ReadCloser
	source string
	start  time.Time
	n      int64
	closed bool
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.rc.Read(p)
	b.n += int64(n)
	return n, err
}

func (b *countingBody) Close() error {
	if !b.closed {
		b.closed = true
		metrics.RecordFetch(b.source, b.n, float64(time.Since(b.start).Milliseconds()))
	}
	return b.rc.Close()
}

type gzipBody struct {
	*gzip.Reader
	body io.ReadCloser
}

func (g *gzipBody) Close() error {
	zerr := g.Reader.Close()
	if err := g.body.Close(); err != nil {
		return err
	}
	return zerr
}
