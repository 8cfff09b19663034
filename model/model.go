package model

import (
	"fmt"
	"time"
)

// Holds all external facing types and constants.

// Status classifies the outcome of computing a route in one poll
// cycle. Only OK routes are eligible for ranking.
type Status int

const (
	StatusOK Status = iota
	StatusNoData
	StatusStale
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNoData:
		return "NO_DATA"
	case StatusStale:
		return "STALE"
	case StatusError:
		return "ERROR"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Color is an RGB triple used by display sinks.
type Color struct {
	R uint8 `yaml:"r" json:"r"`
	G uint8 `yaml:"g" json:"g"`
	B uint8 `yaml:"b" json:"b"`
}

var White = Color{R: 255, G: 255, B: 255}

// FeedRecord is one predicted stop event decoded from a realtime
// feed. Predicted is in UTC. Realtime is false when the time came
// from a schedule-only entry rather than a live prediction.
type FeedRecord struct {
	FeedID    string
	StopID    string
	TripID    string
	Predicted time.Time
	Realtime  bool
}

// Arrival is one upcoming predicted arrival at a stop, as produced
// by the extractor. TripID is retained so travel-time estimators can
// pair a departure with the same trip's arrival further down the
// line.
type Arrival struct {
	TripID   string
	StopID   string
	Time     time.Time
	Realtime bool
}

// RouteConfig describes one commute option. Immutable after config
// load.
type RouteConfig struct {
	Name             string `yaml:"name" validate:"required"`
	FeedID           string `yaml:"feed_id" validate:"required"`
	OriginStop       string `yaml:"origin_stop" validate:"required"`
	DestStop         string `yaml:"dest_stop" validate:"required,nefield=OriginStop"`
	WalkToStationMin int    `yaml:"walk_to_station_min" validate:"gte=0"`
	WalkToOfficeMin  int    `yaml:"walk_to_office_min" validate:"gte=0"`

	// Static in-transit estimate in minutes. Used directly by the
	// fixed strategy, and as fallback when feed-derived times are
	// unavailable.
	TransitMin int `yaml:"transit_min" validate:"gte=0"`

	Color *Color `yaml:"color"`
}

func (r RouteConfig) WalkToStation() time.Duration {
	return time.Duration(r.WalkToStationMin) * time.Minute
}

func (r RouteConfig) WalkToOffice() time.Duration {
	return time.Duration(r.WalkToOfficeMin) * time.Minute
}

// DisplayColor returns the configured color, defaulting to white.
func (r RouteConfig) DisplayColor() Color {
	if r.Color == nil {
		return White
	}
	return *r.Color
}

// RouteResult is the computed outcome for one route in one poll
// cycle. Created fresh each cycle, never mutated. Departure, ETA,
// TotalMin and LeaveInMin are only meaningful when Status is OK;
// Err only when Status is ERROR.
type RouteResult struct {
	Route  RouteConfig
	Status Status

	// Departure is the catchable boarding time at the origin stop.
	Departure time.Time
	// ETA is the predicted arrival at the office, walks included.
	ETA time.Time
	// TotalMin is ETA minus now in whole minutes, rounded up.
	TotalMin int
	// LeaveInMin is how many minutes from now the rider must start
	// walking to catch Departure. Zero means leave immediately.
	LeaveInMin int

	Err string
}

// Eligible reports whether the result can participate in ranking.
func (r RouteResult) Eligible() bool {
	return r.Status == StatusOK
}

// RankedSnapshot is the per-cycle output handed to display sinks.
// Results holds exactly one entry per configured route, best first.
// Best is nil when no route is eligible this cycle.
type RankedSnapshot struct {
	Timestamp time.Time
	Results   []RouteResult
	Best      *RouteResult
}
