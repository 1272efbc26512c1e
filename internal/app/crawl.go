package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/okian/ingestor/internal/adapters/fetch"
	"github.com/okian/ingestor/internal/adapters/reader"
	"github.com/okian/ingestor/internal/domain/dedupe"
	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
)

// ErrNoStations is returned when a TV-news crawl names no station.
var ErrNoStations = errors.New("no stations to crawl")

// ErrBadRange is returned when a crawl range ends before it starts.
var ErrBadRange = errors.New("crawl range ends before it starts")

// newsOrders are the n-gram files published per station and day.
var newsOrders = []int{1, 2}

const day = 24 * time.Hour

// CrawlTVNews crawls the TV-news n-gram files for every day in [start, end)
// and every station. Each (day, station, order) is a partition: it is
// skipped when the gate finds it, so a day is skipped entirely only when both
// orders are found.
func (s *Service) CrawlTVNews(ctx context.Context, start, end time.Time, stations []string) (Report, error) {
	r := newReport(s.runID, model.SourceTVNews)
	began := time.Now()
	defer func() { r.Elapsed = time.Since(began) }()

	if len(stations) == 0 {
		return *r, ErrNoStations
	}
	if end.Before(start) {
		return *r, ErrBadRange
	}
	if err := s.ensureIndex(ctx, s.indices.TVNews, s.newsMapping); err != nil {
		return *r, err
	}
	for _, d := range model.Range(start, end, day) {
		for _, station := range stations {
			for _, order := range newsOrders {
				if err := ctx.Err(); err != nil {
					return *r, err
				}
				s.crawlNews(ctx, model.Partition{Source: model.SourceTVNews, Time: d, Station: station, Order: order}, r)
			}
		}
	}
	s.logger.Info(ctx, "tvnews crawl finished", logger.Any("partitions", r.Partitions), logger.Int("indexed", r.Indexed))
	return *r, nil
}

func (s *Service) crawlNews(ctx context.Context, p model.Partition, r *Report) {
	index := s.indices.TVNews
	t := s.track(ctx, p, r)
	if s.skip(ctx, t, index,
		dedupe.ContainsDay("date", p.Key()),
		dedupe.Equal("station", p.Station),
		dedupe.Equal("ngrams", p.Order),
	) {
		return
	}

	t.to(ctx, StateFetching)
	url := expand(s.tvnewsURL, map[string]string{
		"date":    p.Key(),
		"station": p.Station,
		"order":   strconv.Itoa(p.Order),
	})
	body, err := s.fetcher.OpenGzip(ctx, p.Source, url)
	if err != nil {
		fetchFailed(ctx, t, url, err)
		return
	}
	defer body.Close()
	t.to(ctx, StateFetched, logger.String("url", url))

	s.stream(ctx, t, index, body, r, func(ctx context.Context, line []byte) (any, bool) {
		return s.mapper.MapNewsLine(ctx, line)
	})
}

// CrawlEvents crawls the GDELT 2.0 event exports for every 15 minute
// timestamp in [start, end). Each archive is downloaded and extracted into
// its own temporary directory, removed before the next partition.
func (s *Service) CrawlEvents(ctx context.Context, start, end time.Time) (Report, error) {
	r := newReport(s.runID, model.SourceEvents)
	began := time.Now()
	defer func() { r.Elapsed = time.Since(began) }()

	if end.Before(start) {
		return *r, ErrBadRange
	}
	if err := s.ensureIndex(ctx, s.indices.Events, s.eventMapping); err != nil {
		return *r, err
	}
	for _, ts := range model.Range(start, end, model.EventsStep) {
		if err := ctx.Err(); err != nil {
			return *r, err
		}
		s.crawlEvents(ctx, model.Partition{Source: model.SourceEvents, Time: ts}, r)
	}
	s.logger.Info(ctx, "events crawl finished", logger.Any("partitions", r.Partitions), logger.Int("indexed", r.Indexed))
	return *r, nil
}

func (s *Service) crawlEvents(ctx context.Context, p model.Partition, r *Report) {
	index := s.indices.Events
	t := s.track(ctx, p, r)
	if s.skip(ctx, t, index, dedupe.Equal("time_stone", p.Key())) {
		return
	}

	t.to(ctx, StateFetching)
	dir, err := os.MkdirTemp(s.workDir, "events-"+p.Key()+"-")
	if err != nil {
		t.to(ctx, StateFailed, logger.Error(err))
		return
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			t.logger.Warn(ctx, "failed to remove work directory", logger.String("dir", dir), logger.Error(err))
		}
	}()

	url := expand(s.eventsURL, map[string]string{"timestamp": p.Key()})
	archive, err := s.fetcher.Download(ctx, p.Source, url, dir)
	if err != nil {
		fetchFailed(ctx, t, url, err)
		return
	}
	files, err := fetch.ExtractZip(archive, dir)
	if err != nil {
		t.to(ctx, StateFailed, logger.String("url", url), logger.Error(err))
		return
	}
	t.to(ctx, StateFetched, logger.String("url", url), logger.Int("files", len(files)))

	sources := make([]io.Reader, 0, len(files))
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			t.to(ctx, StateFailed, logger.Error(err))
			return
		}
		defer f.Close()
		sources = append(sources, f)
	}
	s.stream(ctx, t, index, io.MultiReader(sources...), r, func(ctx context.Context, line []byte) (any, bool) {
		return s.mapper.MapEventLine(ctx, line)
	})
}

// skip consults the gate. Gate errors fail the partition rather than risk
// loading it twice.
func (s *Service) skip(ctx context.Context, t *tracker, index string, conds ...model.Condition) bool {
	found, err := s.gate.Found(ctx, index, conds...)
	if err != nil {
		t.to(ctx, StateFailed, logger.String("reason", "existence check failed"), logger.Error(err))
		return true
	}
	if found {
		t.to(ctx, StateSkipped, logger.String("reason", "already ingested"))
		return true
	}
	return false
}

// stream maps src line by line and bulk loads every batch, then settles the
// partition as done or failed.
func (s *Service) stream(ctx context.Context, t *tracker, index string, src io.Reader, r *Report, mapFn reader.MapFunc) {
	t.to(ctx, StateMapping)
	failed := false
	flush := func(ctx context.Context, batch []any) error {
		t.to(ctx, StateLoading, logger.Int("docs", len(batch)))
		res := s.loader.Load(ctx, index, batch)
		r.add(res)
		failed = failed || res.Err != nil
		t.to(ctx, StateMapping)
		return nil
	}
	lines := reader.NewLines(reader.WithBatchSize(s.bulkSize), reader.WithLogger(s.logger))
	stats, err := lines.Stream(ctx, src, mapFn, flush)
	r.Lines += stats.Lines
	r.Mapped += stats.Mapped
	switch {
	case err != nil:
		t.to(ctx, StateFailed, logger.Int("lines", stats.Lines), logger.Error(err))
	case failed:
		t.to(ctx, StateFailed, logger.String("reason", "bulk errors"))
	default:
		t.to(ctx, StateDone, logger.Int("lines", stats.Lines), logger.Int("mapped", stats.Mapped))
	}
}

// fetchFailed ends a partition whose fetch failed: a rejected status is a
// skip with a warning, anything else a failure.
func fetchFailed(ctx context.Context, t *tracker, url string, err error) {
	if errors.Is(err, fetch.ErrStatus) {
		t.to(ctx, StateSkipped, logger.String("reason", "remote file unavailable"), logger.String("url", url), logger.Error(err))
		return
	}
	t.to(ctx, StateFailed, logger.String("url", url), logger.Error(fmt.Errorf("fetch: %w", err)))
}
