// Package traveltime prices the in-transit leg of a commute: how
// long the train takes from the origin stop to the destination stop.
// Feeds sometimes carry enough data to derive this per trip; when
// they don't, a static estimate applies.
package traveltime

import (
	"time"

	"github.com/subwaysign/commute/model"
)

// Estimator computes the in-transit duration for one candidate
// departure. The boolean is false when this estimator cannot price
// the departure, in which case the caller tries the next departure
// or the next estimator.
type Estimator interface {
	Estimate(route model.RouteConfig, dep model.Arrival, records []model.FeedRecord) (time.Duration, bool)
}

// Feed derives the duration from feed-reported times: the departing
// trip's predicted time at the destination stop, after the origin
// time. A trip that never reaches the destination is not priced —
// it's not the rider's train.
type Feed struct{}

func (Feed) Estimate(route model.RouteConfig, dep model.Arrival, records []model.FeedRecord) (time.Duration, bool) {
	for _, rec := range records {
		if rec.TripID != dep.TripID || rec.StopID != route.DestStop {
			continue
		}
		if !rec.Predicted.After(dep.Time) {
			// Destination before origin: wrong direction.
			continue
		}
		return rec.Predicted.Sub(dep.Time), true
	}
	return 0, false
}

// Fixed uses the route's configured static average. Routes with no
// transit_min configured are not priced.
type Fixed struct{}

func (Fixed) Estimate(route model.RouteConfig, dep model.Arrival, records []model.FeedRecord) (time.Duration, bool) {
	if route.TransitMin <= 0 {
		return 0, false
	}
	return time.Duration(route.TransitMin) * time.Minute, true
}

// Chain tries each estimator in order, returning the first answer.
type Chain []Estimator

func (c Chain) Estimate(route model.RouteConfig, dep model.Arrival, records []model.FeedRecord) (time.Duration, bool) {
	for _, est := range c {
		if d, ok := est.Estimate(route, dep, records); ok {
			return d, true
		}
	}
	return 0, false
}
