package service

import (
	"context"
	"time"

	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
	"github.com/okian/ingestor/pkg/metrics"
)

// State is the lifecycle position of one partition.
type State string

// Partition states.
const (
	StatePending  State = "PENDING"
	StateSkipped  State = "SKIPPED"
	StateFetching State = "FETCHING"
	StateFetched  State = "FETCHED"
	StateMapping  State = "MAPPING"
	StateLoading  State = "LOADING"
	StateDone     State = "DONE"
	StateFailed   State = "FAILED"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSkipped || s == StateDone || s == StateFailed
}

var transitions = map[State][]State{
	StatePending:  {StateSkipped, StateFetching, StateMapping, StateFailed},
	StateFetching: {StateFetched, StateSkipped, StateFailed},
	StateFetched:  {StateMapping, StateFailed},
	StateMapping:  {StateLoading, StateDone, StateFailed},
	StateLoading:  {StateMapping, StateDone, StateFailed},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// tracker follows one partition through its states, logging every move and
// counting the terminal one.
type tracker struct {
	p       model.Partition
	state   State
	started time.Time
	logger  logger.Logger
	report  *Report
}

func (s *Service) track(ctx context.Context, p model.Partition, r *Report) *tracker {
	t := &tracker{
		p:       p,
		state:   StatePending,
		started: time.Now(),
		logger:  s.logger.With(logger.String("partition", p.String())),
		report:  r,
	}
	t.logger.Debug(ctx, "partition state", logger.String("state", string(StatePending)))
	return t
}

// to moves the partition to next. Illegal moves are logged and ignored.
func (t *tracker) to(ctx context.Context, next State, fields ...logger.Field) {
	if !CanTransition(t.state, next) {
		t.logger.Error(ctx, "illegal partition transition",
			logger.String("from", string(t.state)),
			logger.String("to", string(next)),
		)
		return
	}
	t.state = next
	fields = append(fields, logger.String("state", string(next)))
	switch next {
	case StateSkipped, StateFailed:
		t.logger.Warn(ctx, "partition state", fields...)
	case StateDone:
		fields = append(fields, logger.Duration("elapsed", time.Since(t.started)))
		t.logger.Info(ctx, "partition state", fields...)
	default:
		t.logger.Debug(ctx, "partition state", fields...)
	}
	if next.Terminal() {
		metrics.RecordPartition(t.p.Source, string(next))
		t.report.count(next)
	}
}
