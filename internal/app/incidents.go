package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/ingestor/internal/adapters/reader"
	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
)

// IngestIncidents loads a GTD CSV file in one pass, window by window. An
// unreadable file is returned as an error; failed bulks are only reported.
func (s *Service) IngestIncidents(ctx context.Context, path string) (Report, error) {
	r := newReport(s.runID, model.SourceIncidents)
	start := time.Now()
	defer func() { r.Elapsed = time.Since(start) }()

	f, err := os.Open(path)
	if err != nil {
		return *r, fmt.Errorf("open incidents file: %w", err)
	}
	defer f.Close()

	csv, err := reader.NewCSV(f,
		reader.WithBatchSize(s.batchSize),
		reader.WithEncoding(s.encoding),
		reader.WithLogger(s.logger),
	)
	if err != nil {
		return *r, fmt.Errorf("read incidents file: %w", err)
	}
	index := s.indices.Incidents
	if err := s.ensureIndex(ctx, index, nil); err != nil {
		return *r, err
	}

	t := s.track(ctx, model.Partition{Source: model.SourceIncidents, Path: path}, r)
	t.to(ctx, StateMapping)
	failed := false
	for {
		frame, err := csv.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.to(ctx, StateFailed, logger.Error(err))
			return *r, fmt.Errorf("read incidents window: %w", err)
		}
		s.mapper.PrepareIncidents(frame)
		docs := s.mapper.MapIncidents(ctx, frame)
		r.Lines += frame.Len()
		r.Mapped += len(docs)

		for _, batch := range batches(docs, s.bulkSize) {
			t.to(ctx, StateLoading)
			res := s.loader.Load(ctx, index, batch)
			r.add(res)
			failed = failed || res.Err != nil
			t.to(ctx, StateMapping)
		}
	}
	s.logger.Info(ctx, "incidents read",
		logger.Int("windows", csv.Windows()),
		logger.Int("rows_skipped", csv.Skipped()),
	)
	if failed {
		t.to(ctx, StateFailed, logger.String("reason", "bulk errors"))
	} else {
		t.to(ctx, StateDone, logger.Int("indexed", r.Indexed))
	}
	return *r, nil
}

// batches splits docs into bulk-sized []any slices.
func batches[T any](docs []T, size int) [][]any {
	if size <= 0 {
		size = len(docs)
	}
	var out [][]any
	for len(docs) > 0 {
		n := min(size, len(docs))
		b := make([]any, n)
		for i := range b {
			b[i] = docs[i]
		}
		out = append(out, b)
		docs = docs[n:]
	}
	return out
}
