package reader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/okian/ingestor/pkg/logger"
	"github.com/okian/ingestor/pkg/metrics"
)

const linesReaderName = "lines"

// MapFunc turns one raw line into a document; false drops the line.
type MapFunc func(ctx context.Context, line []byte) (any, bool)

// FlushFunc receives one full batch. The slice is not reused after the call.
type FlushFunc func(ctx context.Context, batch []any) error

// LineStats summarises one streamed source.
type LineStats struct {
	Lines   int
	Mapped  int
	Batches int
}

// Lines groups mapped lines of a text stream into batches.
type Lines struct {
	opts options
}

// NewLines creates a line batcher. The batch size bounds documents per flush.
func NewLines(opts ...Option) *Lines {
	return &Lines{opts: apply("reader.lines", opts)}
}

// Stream reads src line by line, maps each line and flushes every full batch
// plus the final partial one. A flush error stops the stream.
func (l *Lines) Stream(ctx context.Context, src io.Reader, mapFn MapFunc, flush FlushFunc) (LineStats, error) {
	var stats LineStats
	br := bufio.NewReaderSize(src, 64*1024)
	batch := make([]any, 0, min(l.opts.batchSize, 4096))

	emit := func() error {
		if len(batch) == 0 {
			return nil
		}
		stats.Batches++
		metrics.RecordWindow(linesReaderName)
		err := flush(ctx, batch)
		batch = make([]any, 0, cap(batch))
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			stats.Lines++
			if doc, ok := mapFn(ctx, line); ok {
				stats.Mapped++
				batch = append(batch, doc)
				if len(batch) >= l.opts.batchSize {
					if ferr := emit(); ferr != nil {
						return stats, ferr
					}
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read line %d: %w", stats.Lines+1, err)
		}
	}
	if err := emit(); err != nil {
		return stats, err
	}
	l.opts.logger.Debug(ctx, "line stream done",
		logger.Int("lines", stats.Lines),
		logger.Int("mapped", stats.Mapped),
		logger.Int("batches", stats.Batches),
	)
	return stats, nil
}
