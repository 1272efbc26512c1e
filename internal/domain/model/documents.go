package model

import "time"

// Document kinds, used as metric labels and log fields.
const (
	KindIncident = "incident"
	KindNews     = "news"
	KindEvent    = "event"
)

// IncidentTime is the day an incident happened. GTD uses 0 for unknown month/day.
type IncidentTime struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// IncidentLoc places an incident.
type IncidentLoc struct {
	Region  string  `json:"region"`
	Country string  `json:"country"`
	City    string  `json:"city"`
	Long    float64 `json:"long"`
	Lat     float64 `json:"lat"`
}

// Attack describes how an incident was carried out.
type Attack struct {
	Type    string `json:"type"`
	Success int    `json:"success"`
	Suicide int    `json:"suicide"`
	Weapon  string `json:"weapon"`
}

// Victim describes the target.
type Victim struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	IsHostkid int    `json:"is_hostkid"`
}

// Perpetrator describes the attacking group.
type Perpetrator struct {
	NPerp     float64 `json:"nperp"`
	NPerpCap  float64 `json:"nperpcap"`
	Group     string  `json:"group"`
	IsClaimed int     `json:"is_claimed"`
}

// Consequence summarises casualties and damage.
type Consequence struct {
	TotalKill      float64 `json:"total_kill"`
	TotalWound     float64 `json:"total_wound"`
	PerpDie        float64 `json:"perp_die"`
	PerpWound      float64 `json:"perp_wound"`
	IsPropertyLost int     `json:"is_property_lost"`
	LostValue      float64 `json:"lost_value"`
}

// Incident is one GTD row reshaped for the terrorism index.
type Incident struct {
	IncidentID   int64        `json:"incident_id"`
	IncidentTime IncidentTime `json:"incident_time"`
	IncidentLoc  IncidentLoc  `json:"incident_loc"`
	Attack       Attack       `json:"attack"`
	Victim       Victim       `json:"victim"`
	Perpetrator  Perpetrator  `json:"perpetrator"`
	Consequence  Consequence  `json:"consequence"`
}

// NewsGram is one line of a GDELT TV-news n-gram file.
type NewsGram struct {
	Date    time.Time `json:"date"`
	Station string    `json:"station"`
	Word    string    `json:"word"`
	NGrams  int       `json:"ngrams"`
	Freq    int64     `json:"freq"`
}
