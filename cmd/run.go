package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/ingestor/internal/adapters/fetch"
	"github.com/okian/ingestor/internal/adapters/loader"
	"github.com/okian/ingestor/internal/adapters/repository"
	service "github.com/okian/ingestor/internal/app"
	"github.com/okian/ingestor/internal/config"
	"github.com/okian/ingestor/internal/domain/dedupe"
	"github.com/okian/ingestor/internal/domain/mapper"
	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
	"github.com/okian/ingestor/pkg/metrics"
)

// destination is where a run writes: a store, or a dump file.
type destination struct {
	sink    loader.Sink
	indexer service.Indexer
	gate    dedupe.Gate
	close   func() error
}

func run(ctx context.Context, source string, f *runFlags, out io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	runID := uuid.NewString()
	runLog := runLogger(runID)
	log := runLog.Named("cli")
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	mapping, err := repository.EventMapping(cfg.EventMapping)
	if err != nil {
		return err
	}
	newsMapping, err := repository.NewsMapping(cfg.NewsMapping)
	if err != nil {
		return err
	}
	dest, err := open(ctx, cfg, source, f, runLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := dest.close(); err != nil {
			log.Error(ctx, "failed to close destination", logger.Error(err))
		}
	}()

	m, client := components(cfg, runLog)
	svc := service.New(dest.sink,
		service.WithRunID(runID),
		service.WithIndexer(dest.indexer),
		service.WithGate(dest.gate),
		service.WithMapper(m),
		service.WithFetcher(client),
		service.WithBatchSize(cfg.BatchSize),
		service.WithBulkSize(cfg.BulkSize),
		service.WithEncoding(cfg.CSVEncoding),
		service.WithWorkDir(cfg.WorkDir),
		service.WithURLTemplates(cfg.TVNewsURLTemplate, cfg.EventsURLTemplate),
		service.WithIndices(service.Indices{
			Incidents: cfg.IncidentIndex,
			TVNews:    cfg.TVNewsIndex,
			Events:    cfg.EventsIndex,
		}),
		service.WithEventMapping(mapping),
		service.WithNewsMapping(newsMapping),
	)
	log.Info(ctx, "run started", logger.String("source", source), logger.Bool("dump", f.dump))

	var report service.Report
	switch source {
	case model.SourceIncidents:
		report, err = svc.IngestIncidents(ctx, f.path)
	case model.SourceTVNews:
		start, end, derr := f.dates()
		if derr != nil {
			return derr
		}
		report, err = svc.CrawlTVNews(ctx, start, end, stations(f.stations))
	case model.SourceEvents:
		start, end, derr := f.dates()
		if derr != nil {
			return derr
		}
		report, err = svc.CrawlEvents(ctx, start, end)
	default:
		return fmt.Errorf("unknown source %q", source)
	}

	if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
		log.Warn(ctx, "failed to write metrics textfile", logger.String("path", cfg.MetricsFile), logger.Error(werr))
	}
	if err != nil {
		return err
	}
	printReport(out, report)
	return nil
}

// runLogger tags every component of one run with its id.
func runLogger(runID string) logger.Logger {
	return logger.Get().With(logger.String("run_id", runID))
}

// components builds the run's mapper and fetcher.
func components(cfg *config.Config, runLog logger.Logger) (*mapper.Mapper, *fetch.Client) {
	m := mapper.New(
		mapper.WithStopwords(mapper.NewStopwords(cfg.StopwordsExtend, cfg.StopwordsRemove)),
		mapper.WithFill(cfg.FillValue, cfg.TextFill()),
		mapper.WithLogger(runLog.Named("mapper")),
	)
	client := fetch.New(
		fetch.WithTimeout(cfg.FetchTimeout()),
		fetch.WithRate(cfg.FetchRatePerSecond),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithLogger(runLog.Named("fetch")),
	)
	return m, client
}

// open connects the destination. Connection failures are fatal.
func open(ctx context.Context, cfg *config.Config, source string, f *runFlags, runLog logger.Logger) (*destination, error) {
	storeLog := repository.WithLogger(runLog.Named("repository"))
	if f.dump {
		d, err := repository.NewDump(f.dumpPath(source), storeLog)
		if err != nil {
			return nil, err
		}
		return &destination{sink: d, gate: dedupe.Never, close: d.Close}, nil
	}

	var store repository.Store
	var err error
	switch cfg.Store {
	case config.StoreSQLite:
		store, err = repository.NewSQLite(ctx, cfg.SQLitePath, storeLog)
	default:
		store, err = repository.NewElastic(ctx,
			repository.WithAddresses(cfg.ESAddresses...),
			repository.WithBasicAuth(cfg.ESUsername, cfg.ESPassword),
			storeLog,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Store, err)
	}

	gateLog := dedupe.WithLogger(runLog.Named("dedupe"))
	gate := dedupe.NewSampleGate(store, gateLog)
	if cfg.GateMode == config.GateExact {
		gate = dedupe.NewExactGate(store, gateLog)
	}
	return &destination{sink: store, indexer: store, gate: gate, close: store.Close}, nil
}

func stations(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func printReport(w io.Writer, r service.Report) {
	fmt.Fprintf(w, "run %s: %s\n", r.RunID, r.Source)
	for _, s := range []service.State{service.StateDone, service.StateSkipped, service.StateFailed} {
		fmt.Fprintf(w, "  %-8s %d\n", strings.ToLower(string(s)), r.Partitions[s])
	}
	fmt.Fprintf(w, "  lines %d, mapped %d, indexed %d, failed %d, bulks %d in %s\n",
		r.Lines, r.Mapped, r.Indexed, r.Failed, r.Bulks, r.Elapsed.Round(time.Millisecond))
}
