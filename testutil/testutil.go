package testutil

// Helpers for building GTFS Realtime payloads in tests.

import (
	"testing"
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/require"
	proto "google.golang.org/protobuf/proto"
)

type StopTime struct {
	StopID  string
	Arrival time.Time
	// DepartureOnly publishes the time as a departure with no
	// arrival, as origin stops sometimes do.
	DepartureOnly bool
	Skipped       bool
}

type Trip struct {
	TripID    string
	Canceled  bool
	StopTimes []StopTime
}

// BuildFeed constructs a marshaled GTFS-rt FeedMessage from trip
// descriptions.
func BuildFeed(t testing.TB, timestamp time.Time, trips []Trip) []byte {
	entities := make([]*gtfsproto.FeedEntity, 0, len(trips))

	for _, trip := range trips {
		schedRel := gtfsproto.TripDescriptor_SCHEDULED
		if trip.Canceled {
			schedRel = gtfsproto.TripDescriptor_CANCELED
		}

		stups := make([]*gtfsproto.TripUpdate_StopTimeUpdate, 0, len(trip.StopTimes))
		for _, st := range trip.StopTimes {
			stup := &gtfsproto.TripUpdate_StopTimeUpdate{
				StopId: proto.String(st.StopID),
			}
			event := &gtfsproto.TripUpdate_StopTimeEvent{
				Time: proto.Int64(st.Arrival.Unix()),
			}
			if st.DepartureOnly {
				stup.Departure = event
			} else {
				stup.Arrival = event
			}
			if st.Skipped {
				stup.ScheduleRelationship = gtfsproto.TripUpdate_StopTimeUpdate_SKIPPED.Enum()
			}
			stups = append(stups, stup)
		}

		entities = append(entities, &gtfsproto.FeedEntity{
			Id: proto.String(trip.TripID),
			TripUpdate: &gtfsproto.TripUpdate{
				Trip: &gtfsproto.TripDescriptor{
					TripId:               proto.String(trip.TripID),
					ScheduleRelationship: schedRel.Enum(),
				},
				StopTimeUpdate: stups,
			},
		})
	}

	feed := &gtfsproto.FeedMessage{
		Header: &gtfsproto.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfsproto.FeedHeader_FULL_DATASET.Enum(),
			Timestamp:           proto.Uint64(uint64(timestamp.Unix())),
		},
		Entity: entities,
	}

	payload, err := proto.Marshal(feed)
	require.NoError(t, err)

	return payload
}
