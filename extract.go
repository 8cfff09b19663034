package commute

import (
	"sort"
	"time"

	"github.com/subwaysign/commute/model"
)

// MaxArrivals caps how many upcoming arrivals Extract reports per
// stop. Enough for the catchable-departure search to skip a handful
// of too-soon or dead-end trips.
const MaxArrivals = 8

// Extract returns the upcoming predicted arrivals at stopID, soonest
// first, at most MaxArrivals of them.
//
// Records at or before now are dropped: feeds occasionally lag a few
// seconds behind real departures, and a train that already left must
// never be reported as the next one. Ties on predicted time are
// broken by trip id so a single invocation is deterministic.
func Extract(records []model.FeedRecord, stopID string, now time.Time) []model.Arrival {
	arrivals := []model.Arrival{}
	for _, rec := range records {
		if rec.StopID != stopID {
			continue
		}
		if !rec.Predicted.After(now) {
			continue
		}
		arrivals = append(arrivals, model.Arrival{
			TripID:   rec.TripID,
			StopID:   rec.StopID,
			Time:     rec.Predicted,
			Realtime: rec.Realtime,
		})
	}

	sort.Slice(arrivals, func(i, j int) bool {
		if arrivals[i].Time.Equal(arrivals[j].Time) {
			return arrivals[i].TripID < arrivals[j].TripID
		}
		return arrivals[i].Time.Before(arrivals[j].Time)
	})

	if len(arrivals) > MaxArrivals {
		arrivals = arrivals[:MaxArrivals]
	}

	return arrivals
}
