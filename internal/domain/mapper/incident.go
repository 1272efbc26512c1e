package mapper

import (
	"context"

	"github.com/okian/ingestor/internal/domain/model"
	"github.com/okian/ingestor/pkg/logger"
)

// AnchorColumn keys every incident row.
const AnchorColumn = "eventid"

// Numeric GTD columns kept for mapping.
var incidentNumeric = []string{
	"eventid", "iyear", "imonth", "iday", "longitude", "latitude",
	"success", "suicide", "ishostkid", "nperps", "nperpcap", "claimed",
	"nkill", "nwound", "nkillter", "nwoundte", "property", "propvalue",
}

// Text GTD columns kept for mapping.
var incidentText = []string{
	"country_txt", "region_txt", "city", "attacktype1_txt", "weaptype1_txt",
	"targtype1_txt", "targsubtype1_txt", "gname",
}

// IncidentColumns is the GTD column allow-list in source order.
var IncidentColumns = []string{
	"eventid", "iyear", "imonth", "iday", "country_txt", "region_txt", "city",
	"longitude", "latitude", "attacktype1_txt", "success", "suicide",
	"weaptype1_txt", "targtype1_txt", "targsubtype1_txt", "ishostkid",
	"nperps", "nperpcap", "gname", "claimed", "nkill", "nwound", "nkillter",
	"nwoundte", "property", "propvalue",
}

// PrepareIncidents drops every column outside IncidentColumns and fills blank
// cells: numeric columns with the fill value, text columns with the text fill.
func (m *Mapper) PrepareIncidents(f *model.Frame) {
	f.Keep(IncidentColumns)
	f.Fill(m.numericFill(), incidentNumeric...)
	f.Fill(m.fillText, incidentText...)
}

// MapIncidents maps every row of a prepared frame, walking absolute positions
// from the first to the last anchor key. Positions without a row are skipped;
// rows that fail to map are logged and dropped.
func (m *Mapper) MapIncidents(ctx context.Context, f *model.Frame) []model.Incident {
	first, last, ok := f.Keys(AnchorColumn)
	if !ok {
		return nil
	}
	docs := make([]model.Incident, 0, f.Len())
	for pos := first; pos <= last; pos++ {
		if _, has := f.Cell(AnchorColumn, pos); !has {
			continue
		}
		var doc model.Incident
		if m.guard(ctx, model.KindIncident, func() error {
			var err error
			doc, err = m.incident(f, pos)
			return err
		}) {
			accepted(model.KindIncident)
			docs = append(docs, doc)
		}
	}
	m.logger.Debug(ctx, "incident window mapped",
		logger.Int64("first", first),
		logger.Int64("last", last),
		logger.Int("mapped", len(docs)),
	)
	return docs
}

func (m *Mapper) incident(f *model.Frame, pos int64) (model.Incident, error) {
	r := row{frame: f, pos: pos, fill: m.fill, fillText: m.fillText}
	doc := model.Incident{
		IncidentID: r.long("eventid"),
		IncidentTime: model.IncidentTime{
			Year:  r.int("iyear"),
			Month: r.int("imonth"),
			Day:   r.int("iday"),
		},
		IncidentLoc: model.IncidentLoc{
			Region:  r.text("region_txt"),
			Country: r.text("country_txt"),
			City:    r.text("city"),
			Long:    r.float("longitude"),
			Lat:     r.float("latitude"),
		},
		Attack: model.Attack{
			Type:    r.text("attacktype1_txt"),
			Success: r.int("success"),
			Suicide: r.int("suicide"),
			Weapon:  r.text("weaptype1_txt"),
		},
		Victim: model.Victim{
			Type:      r.text("targtype1_txt"),
			Subtype:   r.text("targsubtype1_txt"),
			IsHostkid: r.int("ishostkid"),
		},
		Perpetrator: model.Perpetrator{
			NPerp:     r.float("nperps"),
			NPerpCap:  r.float("nperpcap"),
			Group:     r.text("gname"),
			IsClaimed: r.int("claimed"),
		},
		Consequence: model.Consequence{
			TotalKill:      r.float("nkill"),
			TotalWound:     r.float("nwound"),
			PerpDie:        r.float("nkillter"),
			PerpWound:      r.float("nwoundte"),
			IsPropertyLost: r.int("property"),
			LostValue:      r.float("propvalue"),
		},
	}
	return doc, r.err
}

// row reads typed cells of one frame row, keeping the first error.
type row struct {
	frame    *model.Frame
	pos      int64
	fill     float64
	fillText string
	err      error
}

func (r *row) text(col string) string {
	v, _ := r.frame.Cell(col, r.pos)
	if v == "" {
		return r.fillText
	}
	return v
}

func (r *row) long(col string) int64 {
	v, _ := r.frame.Cell(col, r.pos)
	n, err := intOr(col, v, int64(r.fill))
	if err != nil && r.err == nil {
		r.err = err
	}
	return n
}

func (r *row) int(col string) int { return int(r.long(col)) }

func (r *row) float(col string) float64 {
	v, _ := r.frame.Cell(col, r.pos)
	n, err := floatOr(col, v, r.fill)
	if err != nil && r.err == nil {
		r.err = err
	}
	return n
}
