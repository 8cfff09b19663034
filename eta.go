package commute

import (
	"time"

	"github.com/subwaysign/commute/model"
	"github.com/subwaysign/commute/traveltime"
)

// ComputeETA turns one route's upcoming arrivals into a RouteResult.
//
// The earliest catchable departure is the first arrival no sooner
// than now plus the walk to the station; a train leaving before the
// rider can reach the platform is never selected, however fast it
// would be. The estimator supplies the in-transit duration for the
// candidate departure; a departure it cannot price (e.g. a trip that
// never reaches the destination stop) is skipped in favor of the
// next one.
//
// Pure function of its inputs and now.
func ComputeETA(
	route model.RouteConfig,
	arrivals []model.Arrival,
	records []model.FeedRecord,
	est traveltime.Estimator,
	now time.Time,
) model.RouteResult {

	earliestBoard := now.Add(route.WalkToStation())

	for _, arr := range arrivals {
		if arr.Time.Before(earliestBoard) {
			continue
		}

		transit, ok := est.Estimate(route, arr, records)
		if !ok {
			continue
		}

		eta := arr.Time.Add(transit).Add(route.WalkToOffice())

		return model.RouteResult{
			Route:      route,
			Status:     model.StatusOK,
			Departure:  arr.Time,
			ETA:        eta,
			TotalMin:   ceilMinutes(eta.Sub(now)),
			LeaveInMin: leaveIn(arr.Time, route.WalkToStation(), now),
		}
	}

	return model.RouteResult{Route: route, Status: model.StatusNoData}
}

// ceilMinutes rounds a duration up to whole minutes. A commute that
// finishes 30 seconds into minute 21 counts as 21 minutes; we never
// underestimate.
func ceilMinutes(d time.Duration) int {
	min := d / time.Minute
	if d%time.Minute > 0 {
		min++
	}
	return int(min)
}

// leaveIn is how long the rider can wait before starting the walk,
// floored to whole minutes and never negative.
func leaveIn(departure time.Time, walk time.Duration, now time.Time) int {
	slack := departure.Add(-walk).Sub(now)
	if slack < 0 {
		return 0
	}
	return int(slack / time.Minute)
}
