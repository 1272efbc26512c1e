// Package model contains domain models passed between layers.
package model

import "time"

// GeoPoint is serialised as an Elasticsearch geo_point object.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ActorGeo locates one actor of a GDELT event.
type ActorGeo struct {
	Type        int     `json:"type"`
	FullName    string  `json:"full_name"`
	CountryCode string  `json:"country_code"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Actor is one side of a GDELT event.
type Actor struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	CountryCode string   `json:"country_code"`
	Types       []string `json:"types"`
	Geo         ActorGeo `json:"geo"`
}

// Event is a GDELT 2.0 event export row.
type Event struct {
	EventID        int64     `json:"event_id"`
	TimeStone      string    `json:"time_stone"` // DATEADDED, yyyymmddHHMMSS
	NMentioned     int       `json:"n_mentioned"`
	PolarityScore  float64   `json:"polarity_score"`
	GoldsteinScale float64   `json:"goldstein_scale"`
	EventCode      string    `json:"event_code"`
	Date           time.Time `json:"date"`
	Year           int       `json:"year"`
	Location       GeoPoint  `json:"location"`
	FeatureID      string    `json:"feature_id"`
	SourceURL      string    `json:"source_url"`
	Actor1         Actor     `json:"actor1"`
	Actor2         Actor     `json:"actor2"`
}
