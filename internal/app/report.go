package service

import (
	"time"

	"github.com/okian/ingestor/internal/adapters/loader"
)

// Report summarises one run.
type Report struct {
	RunID      string
	Source     string
	Partitions map[State]int // terminal states only
	Lines      int
	Mapped     int
	Indexed    int
	Failed     int
	Bulks      int
	Elapsed    time.Duration
}

func newReport(runID, source string) *Report {
	return &Report{
		RunID:      runID,
		Source:     source,
		Partitions: make(map[State]int, 3),
	}
}

func (r *Report) count(s State) {
	r.Partitions[s]++
}

func (r *Report) add(res loader.Result) {
	if res.Submitted == 0 {
		return
	}
	r.Bulks++
	r.Indexed += res.Indexed
	r.Failed += res.Failed
}
