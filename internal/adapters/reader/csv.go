package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
	"github.com/okian/ingestor/pkg/metrics"
	"golang.org/x/text/encoding/charmap"
)

const csvReaderName = "csv"

// CSV reads a header-led CSV source window by window. Every window is a fresh
// frame; nothing is carried over between calls to Next.
type CSV struct {
	r      *csv.Reader
	header []string
	opts   options

	pos     int64 // absolute position of the next data row
	windows int
	skipped int
	done    bool
}

// NewCSV reads the header row of src and prepares windowed reading.
func NewCSV(src io.Reader, opts ...Option) (*CSV, error) {
	o := apply("reader.csv", opts)

	switch o.encoding {
	case EncodingUTF8:
	case EncodingLatin1:
		src = charmap.ISO8859_1.NewDecoder().Reader(src)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEncoding, o.encoding)
	}

	r := csv.NewReader(src)
	r.LazyQuotes = true
	r.FieldsPerRecord = 0 // fixed by the header

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	return &CSV{
		r:      r,
		header: append([]string(nil), header...),
		opts:   o,
	}, nil
}

// Header returns the source column names.
func (c *CSV) Header() []string { return append([]string(nil), c.header...) }

// Next returns the next window of at most the batch size valid rows, or
// io.EOF once the source is exhausted. Malformed rows are logged, counted and
// skipped; their positions are left as gaps in the frame index.
func (c *CSV) Next(ctx context.Context) (*model.Frame, error) {
	if c.done {
		return nil, io.EOF
	}
	frame := model.NewFrame(c.header)
	for frame.Len() < c.opts.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := c.r.Read()
		if errors.Is(err, io.EOF) {
			c.done = true
			break
		}
		pos := c.pos
		c.pos++
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("read csv row %d: %w", pos, err)
			}
			c.skipped++
			metrics.RecordRowSkipped(csvReaderName)
			c.opts.logger.Warn(ctx, "skipping malformed csv row",
				logger.Int64("row", pos),
				logger.Int("line", perr.Line),
				logger.Error(err),
			)
			continue
		}
		frame.Append(pos, row)
	}
	if frame.Len() == 0 {
		return nil, io.EOF
	}
	c.windows++
	metrics.RecordWindow(csvReaderName)
	c.opts.logger.Debug(ctx, "csv window read",
		logger.Int("window", c.windows),
		logger.Int("rows", frame.Len()),
	)
	return frame, nil
}

// Windows returns the number of windows produced so far.
func (c *CSV) Windows() int { return c.windows }

// Skipped returns the number of malformed rows skipped so far.
func (c *CSV) Skipped() int { return c.skipped }
