// Package service drives ingestion runs: it walks partitions of a source,
// gates, fetches, maps and bulk loads each one in turn.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/ingestor/internal/adapters/loader"
	"github.com/okian/ingestor/internal/adapters/reader"
	"github.com/okian/ingestor/internal/adapters/repository"
	"github.com/okian/ingestor/internal/domain/dedupe"
	"github.com/okian/ingestor/internal/domain/mapper"
	"github.com/okian/ingestor/pkg/logger"
)

// Default run configuration.
const (
	defaultBatchSize = 50_000
	defaultBulkSize  = 50_000
)

// Fetcher retrieves remote partitions.
type Fetcher interface {
	// OpenGzip streams a gzip-compressed remote file, decompressed.
	OpenGzip(ctx context.Context, source, url string) (io.ReadCloser, error)
	// Download stores a remote file in dir and returns its path.
	Download(ctx context.Context, source, url, dir string) (string, error)
}

// Indexer creates destination indices. repository.Store implements it.
type Indexer interface {
	IndexExists(ctx context.Context, index string) (bool, error)
	CreateIndex(ctx context.Context, index string, mapping []byte) error
}

// Indices names the destination index per source.
type Indices struct {
	Incidents string
	TVNews    string
	Events    string
}

// Service runs ingestion for the three sources. Runs are sequential: a
// Service must not be used from several goroutines at once.
type Service struct {
	mapper  *mapper.Mapper
	gate    dedupe.Gate
	loader  *loader.Loader
	indexer Indexer
	fetcher Fetcher

	batchSize    int
	bulkSize     int
	encoding     string
	workDir      string
	tvnewsURL    string
	eventsURL    string
	indices      Indices
	newsMapping  []byte
	eventMapping []byte

	runID  string
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGate sets the existence gate; dedupe.Never by default.
func WithGate(g dedupe.Gate) Option {
	return func(s *Service) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithIndexer sets where indices are ensured before loading. Without one no
// index is created, as in dump mode.
func WithIndexer(ix Indexer) Option {
	return func(s *Service) {
		s.indexer = ix
	}
}

// WithFetcher sets the remote fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithMapper sets the record mapper.
func WithMapper(m *mapper.Mapper) Option {
	return func(s *Service) {
		if m != nil {
			s.mapper = m
		}
	}
}

// WithBatchSize sets the rows per CSV window.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithBulkSize sets the documents per bulk write.
func WithBulkSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.bulkSize = n
		}
	}
}

// WithEncoding sets the incident CSV encoding.
func WithEncoding(enc string) Option {
	return func(s *Service) {
		if enc != "" {
			s.encoding = enc
		}
	}
}

// WithWorkDir sets the parent of per-partition temporary directories.
func WithWorkDir(dir string) Option {
	return func(s *Service) {
		s.workDir = dir
	}
}

// WithURLTemplates sets the GDELT URL templates. Placeholders: {date},
// {station}, {order} for TV news and {timestamp} for events.
func WithURLTemplates(tvnews, events string) Option {
	return func(s *Service) {
		if tvnews != "" {
			s.tvnewsURL = tvnews
		}
		if events != "" {
			s.eventsURL = events
		}
	}
}

// WithIndices sets the destination index names. Empty names keep defaults.
func WithIndices(ix Indices) Option {
	return func(s *Service) {
		if ix.Incidents != "" {
			s.indices.Incidents = ix.Incidents
		}
		if ix.TVNews != "" {
			s.indices.TVNews = ix.TVNews
		}
		if ix.Events != "" {
			s.indices.Events = ix.Events
		}
	}
}

// WithNewsMapping sets the JSON body used to create the TV news index.
func WithNewsMapping(body []byte) Option {
	return func(s *Service) {
		s.newsMapping = body
	}
}

// WithEventMapping sets the JSON body used to create the events index.
func WithEventMapping(body []byte) Option {
	return func(s *Service) {
		s.eventMapping = body
	}
}

// WithRunID overrides the generated run id.
func WithRunID(id string) Option {
	return func(s *Service) {
		if id != "" {
			s.runID = id
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service that loads through sink.
func New(sink loader.Sink, opts ...Option) *Service {
	s := &Service{
		gate:      dedupe.Never,
		batchSize: defaultBatchSize,
		bulkSize:  defaultBulkSize,
		encoding:  reader.EncodingUTF8,
		tvnewsURL: "http://data.gdeltproject.org/gdeltv3/iatv/ngrams/{date}.{station}.{order}gram.txt.gz",
		eventsURL: "http://data.gdeltproject.org/gdeltv2/{timestamp}.export.CSV.zip",
		indices: Indices{
			Incidents: "terrorism",
			TVNews:    "tvnews",
			Events:    "gdelt-events-2.0",
		},
		runID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	// built-in mappings are embedded and always parse
	if s.newsMapping == nil {
		s.newsMapping, _ = repository.NewsMapping("")
	}
	if s.eventMapping == nil {
		s.eventMapping, _ = repository.EventMapping("")
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	s.logger = s.logger.With(logger.String("run_id", s.runID))
	if s.mapper == nil {
		s.mapper = mapper.New(mapper.WithLogger(s.logger))
	}
	s.loader = loader.New(sink, loader.WithLogger(s.logger))
	return s
}

// RunID identifies this service's runs in logs.
func (s *Service) RunID() string { return s.runID }

// Indices returns the destination index names.
func (s *Service) Indices() Indices { return s.indices }

// ensureIndex creates index when an indexer is configured and the index is
// missing.
func (s *Service) ensureIndex(ctx context.Context, index string, mapping []byte) error {
	if s.indexer == nil {
		return nil
	}
	ok, err := s.indexer.IndexExists(ctx, index)
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	if ok {
		return nil
	}
	if err := s.indexer.CreateIndex(ctx, index, mapping); err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	s.logger.Info(ctx, "index ensured", logger.String("index", index))
	return nil
}

// expand fills a URL template.
func expand(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// compile-time checks
var (
	_ Indexer     = (repository.Store)(nil)
	_ loader.Sink = (repository.Store)(nil)
	_ loader.Sink = (*repository.Dump)(nil)
)
