package model

import (
	"fmt"
	"path/filepath"
	"time"
)

// Source names.
const (
	SourceIncidents = "incidents"
	SourceTVNews    = "tvnews"
	SourceEvents    = "events"
)

// Partition key layouts.
const (
	DayLayout       = "20060102"
	TimestampLayout = "20060102150405"
	ISODayLayout    = "2006-01-02"
)

// EventsStep is the publication interval of GDELT 2.0 exports.
const EventsStep = 15 * time.Minute

// Partition is one crawlable unit of a remote source.
type Partition struct {
	Source  string
	Time    time.Time
	Station string // tvnews only
	Order   int    // tvnews n-gram order
	Path    string // incidents input file
}

// Key returns the partition marker: yyyymmdd for days, yyyymmddHHMMSS for
// event exports.
func (p Partition) Key() string {
	if p.Source == SourceEvents {
		return p.Time.Format(TimestampLayout)
	}
	return p.Time.Format(DayLayout)
}

func (p Partition) String() string {
	switch p.Source {
	case SourceIncidents:
		return fmt.Sprintf("%s/%s", p.Source, filepath.Base(p.Path))
	case SourceTVNews:
		return fmt.Sprintf("%s/%s/%s/%dgram", p.Source, p.Key(), p.Station, p.Order)
	default:
		return fmt.Sprintf("%s/%s", p.Source, p.Key())
	}
}

// Range yields start, start+step, ... while strictly before end.
func Range(start, end time.Time, step time.Duration) []time.Time {
	if step <= 0 {
		return nil
	}
	var out []time.Time
	for t := start; t.Before(end); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

// ParseDay parses a yyyymmdd string in UTC.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}
