package parse_test

import (
	"testing"
	"time"

	gtfsproto "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	proto "google.golang.org/protobuf/proto"

	"github.com/subwaysign/commute/parse"
	"github.com/subwaysign/commute/testutil"
)

var feedTime = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

func TestParseFeedRecords(t *testing.T) {
	payload := testutil.BuildFeed(t, feedTime, []testutil.Trip{
		{
			TripID: "t1",
			StopTimes: []testutil.StopTime{
				{StopID: "S1", Arrival: feedTime.Add(3 * time.Minute)},
				{StopID: "S2", Arrival: feedTime.Add(9 * time.Minute)},
			},
		},
		{
			TripID: "t2",
			StopTimes: []testutil.StopTime{
				{StopID: "S1", Arrival: feedTime.Add(5 * time.Minute), DepartureOnly: true},
			},
		},
	})

	rt, err := parse.ParseFeed("f1", payload)
	require.NoError(t, err)

	assert.Equal(t, feedTime, rt.Timestamp)
	assert.Equal(t, 2, rt.NumTrips)
	require.Len(t, rt.Records, 3)

	assert.Equal(t, "f1", rt.Records[0].FeedID)
	assert.Equal(t, "t1", rt.Records[0].TripID)
	assert.Equal(t, "S1", rt.Records[0].StopID)
	assert.Equal(t, feedTime.Add(3*time.Minute), rt.Records[0].Predicted)

	// Departure-only stop times still yield a record.
	assert.Equal(t, "t2", rt.Records[2].TripID)
	assert.Equal(t, feedTime.Add(5*time.Minute), rt.Records[2].Predicted)
}

func TestParseFeedSkipsCanceledTrips(t *testing.T) {
	payload := testutil.BuildFeed(t, feedTime, []testutil.Trip{
		{
			TripID:   "gone",
			Canceled: true,
			StopTimes: []testutil.StopTime{
				{StopID: "S1", Arrival: feedTime.Add(3 * time.Minute)},
			},
		},
	})

	rt, err := parse.ParseFeed("f1", payload)
	require.NoError(t, err)

	assert.Empty(t, rt.Records)
	assert.Equal(t, 1, rt.NumCanceledTrips)
}

func TestParseFeedSkipsSkippedStops(t *testing.T) {
	payload := testutil.BuildFeed(t, feedTime, []testutil.Trip{
		{
			TripID: "t1",
			StopTimes: []testutil.StopTime{
				{StopID: "S1", Arrival: feedTime.Add(3 * time.Minute), Skipped: true},
				{StopID: "S2", Arrival: feedTime.Add(9 * time.Minute)},
			},
		},
	})

	rt, err := parse.ParseFeed("f1", payload)
	require.NoError(t, err)

	require.Len(t, rt.Records, 1)
	assert.Equal(t, "S2", rt.Records[0].StopID)
	assert.Equal(t, 1, rt.NumSkippedStops)
}

func TestParseFeedMalformedPayload(t *testing.T) {
	_, err := parse.ParseFeed("f1", []byte("definitely not protobuf"))
	assert.ErrorIs(t, err, parse.ErrFeedParse)
}

func TestParseFeedUnsupportedVersion(t *testing.T) {
	feed := &gtfsproto.FeedMessage{
		Header: &gtfsproto.FeedHeader{
			GtfsRealtimeVersion: proto.String("3.0"),
		},
	}
	payload, err := proto.Marshal(feed)
	require.NoError(t, err)

	_, err = parse.ParseFeed("f1", payload)
	assert.ErrorIs(t, err, parse.ErrFeedParse)
}

func TestParseFeedIncrementalNotSupported(t *testing.T) {
	feed := &gtfsproto.FeedMessage{
		Header: &gtfsproto.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      gtfsproto.FeedHeader_DIFFERENTIAL.Enum(),
		},
	}
	payload, err := proto.Marshal(feed)
	require.NoError(t, err)

	_, err = parse.ParseFeed("f1", payload)
	assert.ErrorIs(t, err, parse.ErrFeedParse)
}
