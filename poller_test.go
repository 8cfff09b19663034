package commute_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subwaysign/commute"
	"github.com/subwaysign/commute/feed"
	"github.com/subwaysign/commute/model"
	"github.com/subwaysign/commute/testutil"
	"github.com/subwaysign/commute/traveltime"
)

type captureSink struct {
	snaps []model.RankedSnapshot
}

func (c *captureSink) Render(snap model.RankedSnapshot) {
	c.snaps = append(c.snaps, snap)
}

func testRoute(name, feedID string) model.RouteConfig {
	return model.RouteConfig{
		Name:             name,
		FeedID:           feedID,
		OriginStop:       "ORIG-" + name,
		DestStop:         "DEST-" + name,
		WalkToStationMin: 5,
		WalkToOfficeMin:  10,
		TransitMin:       12,
	}
}

// goodPayload builds a feed with one catchable departure for the
// route, boarding 9 minutes after testNow.
func goodPayload(t *testing.T, route model.RouteConfig) []byte {
	return testutil.BuildFeed(t, testNow, []testutil.Trip{
		{
			TripID: "trip-" + route.Name,
			StopTimes: []testutil.StopTime{
				{StopID: route.OriginStop, Arrival: testNow.Add(9 * time.Minute)},
				{StopID: route.DestStop, Arrival: testNow.Add(21 * time.Minute)},
			},
		},
	})
}

func newTestPoller(routes []model.RouteConfig, fetcher feed.Fetcher, sink *captureSink) *commute.Poller {
	p := commute.NewPoller(routes, fetcher, traveltime.Fixed{}, sink)
	p.TimeNow = func() time.Time { return testNow }
	return p
}

func TestCycleOneFeedFailureScopedToItsRoutes(t *testing.T) {
	routeA := testRoute("A", "f1")
	routeC := testRoute("C", "f2")

	payloadA := goodPayload(t, routeA)
	fetcher := feed.Func(func(ctx context.Context, feedID string) ([]byte, error) {
		if feedID == "f2" {
			return nil, errors.Wrap(feed.ErrFetch, "connection refused")
		}
		return payloadA, nil
	})

	sink := &captureSink{}
	p := newTestPoller([]model.RouteConfig{routeA, routeC}, fetcher, sink)

	snap, err := p.Cycle(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Results, 2)
	byName := map[string]model.RouteResult{}
	for _, res := range snap.Results {
		byName[res.Route.Name] = res
	}

	assert.Equal(t, model.StatusOK, byName["A"].Status)
	assert.Equal(t, 31, byName["A"].TotalMin)

	assert.Equal(t, model.StatusError, byName["C"].Status)
	assert.Contains(t, byName["C"].Err, "connection refused")

	require.NotNil(t, snap.Best)
	assert.Equal(t, "A", snap.Best.Route.Name)
}

func TestCycleSharedFeedFetchedOnce(t *testing.T) {
	routeA := testRoute("A", "f1")
	routeB := testRoute("B", "f1")

	payload := testutil.BuildFeed(t, testNow, []testutil.Trip{
		{
			TripID: "t1",
			StopTimes: []testutil.StopTime{
				{StopID: routeA.OriginStop, Arrival: testNow.Add(9 * time.Minute)},
				{StopID: routeB.OriginStop, Arrival: testNow.Add(11 * time.Minute)},
			},
		},
	})

	var fetches int64
	fetcher := feed.Func(func(ctx context.Context, feedID string) ([]byte, error) {
		atomic.AddInt64(&fetches, 1)
		return payload, nil
	})

	p := newTestPoller([]model.RouteConfig{routeA, routeB}, fetcher, &captureSink{})

	_, err := p.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), atomic.LoadInt64(&fetches))
}

func TestCycleStaleAfterThreshold(t *testing.T) {
	route := testRoute("D", "f1")
	payload := goodPayload(t, route)

	var failNow atomic.Bool
	fetcher := feed.Func(func(ctx context.Context, feedID string) ([]byte, error) {
		if failNow.Load() {
			return nil, errors.Wrap(feed.ErrFetch, "timeout")
		}
		return payload, nil
	})

	p := newTestPoller([]model.RouteConfig{route}, fetcher, &captureSink{})

	// First cycle succeeds and records the fetch time.
	snap, err := p.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.StatusOK, snap.Results[0].Status)

	// 20 minutes later the fetch fails and the cached data is well
	// past the 5 minute threshold.
	failNow.Store(true)
	p.TimeNow = func() time.Time { return testNow.Add(20 * time.Minute) }

	snap, err = p.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StatusStale, snap.Results[0].Status)
	assert.Nil(t, snap.Best)
}

func TestCycleFreshCacheCoversFetchFailure(t *testing.T) {
	route := testRoute("D", "f1")
	payload := goodPayload(t, route)

	var failNow atomic.Bool
	fetcher := feed.Func(func(ctx context.Context, feedID string) ([]byte, error) {
		if failNow.Load() {
			return nil, errors.Wrap(feed.ErrFetch, "timeout")
		}
		return payload, nil
	})

	p := newTestPoller([]model.RouteConfig{route}, fetcher, &captureSink{})

	_, err := p.Cycle(context.Background())
	require.NoError(t, err)

	// One minute later the fetch fails, but the cached records are
	// recent enough to trust.
	failNow.Store(true)
	p.TimeNow = func() time.Time { return testNow.Add(1 * time.Minute) }

	snap, err := p.Cycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.StatusOK, snap.Results[0].Status)
	// Departure still at testNow+9m, seen from one minute later.
	assert.Equal(t, 30, snap.Results[0].TotalMin)
}

func TestCycleIdempotentForSameInputs(t *testing.T) {
	route := testRoute("A", "f1")
	payload := goodPayload(t, route)
	fetcher := feed.Func(func(ctx context.Context, feedID string) ([]byte, error) {
		return payload, nil
	})

	p := newTestPoller([]model.RouteConfig{route}, fetcher, &captureSink{})

	first, err := p.Cycle(context.Background())
	require.NoError(t, err)
	second, err := p.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCycleCanceledPublishesNothing(t *testing.T) {
	route := testRoute("A", "f1")

	ctx, cancel := context.WithCancel(context.Background())
	fetcher := feed.Func(func(fctx context.Context, feedID string) ([]byte, error) {
		cancel()
		return nil, fctx.Err()
	})

	sink := &captureSink{}
	p := newTestPoller([]model.RouteConfig{route}, fetcher, sink)

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.snaps)
}

func TestPollerStateTransitions(t *testing.T) {
	route := testRoute("A", "f1")
	payload := goodPayload(t, route)

	stateDuringFetch := make(chan commute.State, 1)
	var p *commute.Poller
	fetcher := feed.Func(func(ctx context.Context, feedID string) ([]byte, error) {
		// Observed from the fetch goroutine, like a monitoring
		// caller would while Run blocks.
		stateDuringFetch <- p.State()
		return payload, nil
	})

	p = newTestPoller([]model.RouteConfig{route}, fetcher, &captureSink{})
	assert.Equal(t, commute.StateIdle, p.State())

	_, err := p.Cycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, commute.StateFetching, <-stateDuringFetch)
	assert.Equal(t, commute.StatePublished, p.State())
}

func TestRunRendersEachCycle(t *testing.T) {
	route := testRoute("A", "f1")
	payload := goodPayload(t, route)
	fetcher := feed.Func(func(ctx context.Context, feedID string) ([]byte, error) {
		return payload, nil
	})

	sink := &captureSink{}
	p := newTestPoller([]model.RouteConfig{route}, fetcher, sink)
	p.Interval = time.Hour // one cycle, then block until cancel

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// Give the first cycle time to publish.
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, sink.snaps, 1)
	assert.Equal(t, model.StatusOK, sink.snaps[0].Results[0].Status)
}
