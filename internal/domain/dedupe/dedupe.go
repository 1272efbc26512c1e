// Package dedupe decides whether a crawl partition was already ingested.
package dedupe

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
)

// Gate reports whether documents matching every condition already exist in
// index. A missing or empty index always means not found.
type Gate interface {
	Found(ctx context.Context, index string, conds ...model.Condition) (bool, error)
}

// Sampler returns one arbitrary stored document. Implementations return
// model.ErrIndexNotFound or model.ErrNotFound when there is none.
type Sampler interface {
	Sample(ctx context.Context, index string) (map[string]any, error)
}

// Counter counts documents matching all conditions.
type Counter interface {
	Count(ctx context.Context, index string, conds []model.Condition) (int64, error)
}

// Equal matches documents whose field equals value.
func Equal(field string, value any) model.Condition {
	return model.Condition{Field: field, Op: model.OpEqual, Value: value}
}

// ContainsDay matches documents whose field contains the ISO form
// (yyyy-mm-dd) of day, given as yyyymmdd.
func ContainsDay(field, day string) model.Condition {
	return model.Condition{Field: field, Op: model.OpContainsDay, Value: day}
}

// sampleGate inspects a single stored document. It cannot tell a fully
// ingested partition from a partially ingested one, and a sample from another
// partition reads as not found.
type sampleGate struct {
	sampler Sampler
	logger  logger.Logger
}

// NewSampleGate creates the sampling gate.
func NewSampleGate(s Sampler, opts ...Option) Gate {
	return &sampleGate{sampler: s, logger: apply(opts).logger}
}

func (g *sampleGate) Found(ctx context.Context, index string, conds ...model.Condition) (bool, error) {
	doc, err := g.sampler.Sample(ctx, index)
	if errors.Is(err, model.ErrIndexNotFound) || errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sample %s: %w", index, err)
	}
	for _, c := range conds {
		if !c.Match(doc) {
			g.logger.Debug(ctx, "sample does not match", logger.String("index", index), logger.String("condition", c.String()))
			return false, nil
		}
	}
	return true, nil
}

// exactGate runs a count query per partition.
type exactGate struct {
	counter Counter
	logger  logger.Logger
}

// NewExactGate creates a gate backed by count queries.
func NewExactGate(c Counter, opts ...Option) Gate {
	return &exactGate{counter: c, logger: apply(opts).logger}
}

func (g *exactGate) Found(ctx context.Context, index string, conds ...model.Condition) (bool, error) {
	n, err := g.counter.Count(ctx, index, conds)
	if errors.Is(err, model.ErrIndexNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("count %s: %w", index, err)
	}
	g.logger.Debug(ctx, "partition count", logger.String("index", index), logger.Int64("count", n))
	return n > 0, nil
}

type never struct{}

func (never) Found(context.Context, string, ...model.Condition) (bool, error) { return false, nil }

// Never reports every partition as not found. Used when there is no
// destination to check, as in dump mode.
var Never Gate = never{}
