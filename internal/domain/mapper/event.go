package mapper

import (
	"context"
	"strconv"
	"strings"

	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/metrics"
	"github.com/pkg/errors"
)

// EventColumns is the width of a GDELT 2.0 event export row.
const EventColumns = 61

// Positions in a GDELT 2.0 export row. The trailing columns are addressed
// from the end of the row.
const (
	colEventID     = 0
	colSQLDate     = 1
	colYear        = 3
	colActor1      = 5
	colActor2      = 15
	colEventCode   = 26
	colGoldstein   = 30
	colNumMentions = 31
	colAvgTone     = 34
	colActor1Geo   = 35
	colActor2Geo   = 43

	fromEndActionLat = 5
	fromEndActionLon = 4
	fromEndFeatureID = 3
	fromEndDateAdded = 2
	fromEndSourceURL = 1
)

// Offsets inside an actor block and an actor geo block.
const (
	actorCode    = 0
	actorName    = 1
	actorCountry = 2
	actorType1   = 7
	actorTypes   = 3

	geoType     = 0
	geoFullName = 1
	geoCountry  = 2
	geoLat      = 5
	geoLon      = 6
)

// MapEventLine maps one tab separated GDELT 2.0 export row. Rows without an
// action geo latitude and longitude are dropped and report false.
func (m *Mapper) MapEventLine(ctx context.Context, line []byte) (model.Event, bool) {
	var doc model.Event
	var noGeo bool
	ok := m.guard(ctx, model.KindEvent, func() error {
		d := strings.Split(strings.TrimRight(string(line), "\r\n"), "\t")
		if len(d) < EventColumns {
			return errors.Wrapf(ErrShortRecord, "event row has %d of %d fields", len(d), EventColumns)
		}
		n := len(d)
		lat, lon := strings.TrimSpace(d[n-fromEndActionLat]), strings.TrimSpace(d[n-fromEndActionLon])
		if lat == "" || lon == "" {
			noGeo = true
			return nil
		}
		var err error
		doc, err = m.event(d, lat, lon)
		return err
	})
	if !ok {
		return model.Event{}, false
	}
	if noGeo {
		metrics.RecordDocumentDropped(model.KindEvent, "no_geo")
		return model.Event{}, false
	}
	accepted(model.KindEvent)
	return doc, true
}

func (m *Mapper) event(d []string, lat, lon string) (model.Event, error) {
	p := positional{fields: d, fill: m.fill}
	n := len(d)

	id, err := parseInt("event_id", d[colEventID])
	if err != nil {
		return model.Event{}, err
	}
	date, err := model.ParseDay(strings.TrimSpace(d[colSQLDate]))
	if err != nil {
		return model.Event{}, errors.Wrapf(ErrMalformed, "event date %q", d[colSQLDate])
	}
	latF, err := parseFloat("lat", lat)
	if err != nil {
		return model.Event{}, err
	}
	lonF, err := parseFloat("lon", lon)
	if err != nil {
		return model.Event{}, err
	}

	doc := model.Event{
		EventID:        id,
		TimeStone:      strings.TrimSpace(d[n-fromEndDateAdded]),
		NMentioned:     p.int(colNumMentions),
		PolarityScore:  p.float(colAvgTone),
		GoldsteinScale: p.float(colGoldstein),
		EventCode:      d[colEventCode],
		Date:           date,
		Year:           p.int(colYear),
		Location:       model.GeoPoint{Lat: latF, Lon: lonF},
		FeatureID:      d[n-fromEndFeatureID],
		SourceURL:      strings.TrimSpace(d[n-fromEndSourceURL]),
		Actor1:         p.actor(colActor1, colActor1Geo),
		Actor2:         p.actor(colActor2, colActor2Geo),
	}
	return doc, p.err
}

// positional reads typed columns of one split row, keeping the first error.
type positional struct {
	fields []string
	fill   float64
	err    error
}

func (p *positional) int(i int) int {
	v, err := intOr(columnName(i), p.fields[i], int64(p.fill))
	if err != nil && p.err == nil {
		p.err = err
	}
	return int(v)
}

func (p *positional) float(i int) float64 {
	v, err := floatOr(columnName(i), p.fields[i], p.fill)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *positional) actor(base, geo int) model.Actor {
	types := make([]string, 0, actorTypes)
	for i := 0; i < actorTypes; i++ {
		if t := strings.TrimSpace(p.fields[base+actorType1+i]); t != "" {
			types = append(types, t)
		}
	}
	return model.Actor{
		Code:        p.fields[base+actorCode],
		Name:        p.fields[base+actorName],
		CountryCode: p.fields[base+actorCountry],
		Types:       types,
		Geo: model.ActorGeo{
			Type:        p.int(geo + geoType),
			FullName:    p.fields[geo+geoFullName],
			CountryCode: p.fields[geo+geoCountry],
			Lat:         p.float(geo + geoLat),
			Lon:         p.float(geo + geoLon),
		},
	}
}

func columnName(i int) string {
	return "column " + strconv.Itoa(i)
}
