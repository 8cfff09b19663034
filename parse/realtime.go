package parse

import (
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/pkg/errors"
	proto "google.golang.org/protobuf/proto"

	"github.com/subwaysign/commute/model"
)

// Decodes GTFS Realtime feeds into flat FeedRecords. Only TripUpdate
// entities matter here: each stop time update with a usable time
// becomes one record. Vehicle positions, alerts, added and
// frequency-based trips are ignored.

// ErrFeedParse marks a payload that could not be decoded. Callers
// match it with errors.Is.
var ErrFeedParse = errors.New("feed parse failed")

// Realtime is the decoded content of one feed payload.
type Realtime struct {
	// Timestamp of the feed header, zero if the feed didn't set one.
	Timestamp time.Time
	Records   []model.FeedRecord

	// These exist to simplify debugging down the road
	NumTrips         int
	NumCanceledTrips int
	NumSkippedStops  int
}

// ParseFeed decodes a GTFS-rt protobuf payload into records tagged
// with feedID. Canceled trips and skipped stops contribute no
// records.
func ParseFeed(feedID string, payload []byte) (*Realtime, error) {
	f := &gtfsproto.FeedMessage{}
	if err := proto.Unmarshal(payload, f); err != nil {
		return nil, errors.Wrapf(ErrFeedParse, "unmarshaling protobuf: %v", err)
	}

	header := f.GetHeader()

	version := header.GetGtfsRealtimeVersion()
	if version != "2.0" && version != "1.0" {
		return nil, errors.Wrapf(ErrFeedParse, "version %s not supported", version)
	}

	if header.GetIncrementality() != gtfsproto.FeedHeader_FULL_DATASET {
		return nil, errors.Wrapf(ErrFeedParse, "incrementality %s not supported", header.GetIncrementality())
	}

	rt := &Realtime{}
	if ts := header.GetTimestamp(); ts != 0 {
		rt.Timestamp = time.Unix(int64(ts), 0).UTC()
	}

	for _, entity := range f.GetEntity() {
		if entity.TripUpdate == nil {
			continue
		}

		trip := entity.TripUpdate.Trip
		if trip == nil {
			return nil, errors.Wrap(ErrFeedParse, "trip_update missing trip")
		}

		// Blank trip IDs are allowed by spec when the trip is
		// otherwise uniquely identified. We don't support that.
		if trip.GetTripId() == "" {
			continue
		}

		switch trip.GetScheduleRelationship() {
		case gtfsproto.TripDescriptor_CANCELED:
			rt.NumCanceledTrips++
			continue
		case gtfsproto.TripDescriptor_SCHEDULED:
			// fall through to stop time updates
		default:
			// ADDED, UNSCHEDULED, DUPLICATED: not supported
			continue
		}

		rt.NumTrips++
		for _, update := range entity.TripUpdate.GetStopTimeUpdate() {
			rec, ok := stopTimeRecord(feedID, trip.GetTripId(), update)
			if ok {
				rt.Records = append(rt.Records, rec)
			} else if update.GetScheduleRelationship() == gtfsproto.TripUpdate_StopTimeUpdate_SKIPPED {
				rt.NumSkippedStops++
			}
		}
	}

	return rt, nil
}

// stopTimeRecord converts one stop time update into a FeedRecord.
// Arrival time is preferred; departure time is the fallback for
// origin-style stops that only publish departures. Updates without
// any absolute time carry no usable prediction and are dropped.
func stopTimeRecord(
	feedID string,
	tripID string,
	update *gtfsproto.TripUpdate_StopTimeUpdate,
) (model.FeedRecord, bool) {

	if update.GetStopId() == "" {
		return model.FeedRecord{}, false
	}

	switch update.GetScheduleRelationship() {
	case gtfsproto.TripUpdate_StopTimeUpdate_SKIPPED:
		return model.FeedRecord{}, false
	case gtfsproto.TripUpdate_StopTimeUpdate_NO_DATA:
		return model.FeedRecord{}, false
	}

	var unix int64
	realtime := true
	if update.Arrival != nil && update.GetArrival().GetTime() != 0 {
		unix = update.GetArrival().GetTime()
	} else if update.Departure != nil && update.GetDeparture().GetTime() != 0 {
		unix = update.GetDeparture().GetTime()
	} else {
		return model.FeedRecord{}, false
	}

	// A delay-less, time-only update with no uncertainty field set
	// is indistinguishable from schedule passthrough in some feeds.
	// Treat explicit uncertainty == 0 on the arrival as schedule
	// data.
	if update.Arrival != nil && update.GetArrival().Uncertainty != nil && update.GetArrival().GetUncertainty() == 0 {
		realtime = false
	}

	return model.FeedRecord{
		FeedID:    feedID,
		StopID:    update.GetStopId(),
		TripID:    tripID,
		Predicted: time.Unix(unix, 0).UTC(),
		Realtime:  realtime,
	}, true
}
