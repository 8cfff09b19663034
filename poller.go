package commute

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/subwaysign/commute/feed"
	"github.com/subwaysign/commute/model"
	"github.com/subwaysign/commute/parse"
	"github.com/subwaysign/commute/traveltime"
)

const (
	DefaultInterval  = 30 * time.Second
	DefaultStaleness = 5 * time.Minute
)

// State of the poll loop, for introspection and logging.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateComputing
	StatePublished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateComputing:
		return "computing"
	case StatePublished:
		return "published"
	}
	return "unknown"
}

// Sink receives the ranked snapshot once per completed cycle.
// Rendering failures are the sink's concern.
type Sink interface {
	Render(model.RankedSnapshot)
}

// CycleMetrics is the subset of instrumentation the poller reports.
// A nil implementation is allowed.
type CycleMetrics interface {
	CycleObserve(d time.Duration)
	FetchErrorInc(feedID string)
	SnapshotPublished(eligible int, bestTotalMin int)
}

// Poller drives the periodic fetch → extract → compute → rank →
// render cycle. Cycles never overlap: the next one starts only after
// the previous completes and the interval elapses.
type Poller struct {
	Interval  time.Duration
	Staleness time.Duration
	Metrics   CycleMetrics

	// TimeNow is swappable for tests.
	TimeNow func() time.Time

	routes    []model.RouteConfig
	fetcher   feed.Fetcher
	estimator traveltime.Estimator
	sink      Sink

	// Run blocks, so State is read from other goroutines; keep the
	// phase atomic.
	state atomic.Int32

	// Last successfully fetched and parsed records per feed id,
	// used for staleness handling. Written only between cycles'
	// fetch and compute phases; cycles are sequential, so no lock.
	lastGood map[string]goodFeed
}

type goodFeed struct {
	records []model.FeedRecord
	at      time.Time
}

func NewPoller(
	routes []model.RouteConfig,
	fetcher feed.Fetcher,
	estimator traveltime.Estimator,
	sink Sink,
) *Poller {
	return &Poller{
		Interval:  DefaultInterval,
		Staleness: DefaultStaleness,
		TimeNow:   time.Now,
		routes:    routes,
		fetcher:   fetcher,
		estimator: estimator,
		sink:      sink,
		lastGood:  map[string]goodFeed{},
	}
}

// State returns the poll loop's current phase.
func (p *Poller) State() State {
	return State(p.state.Load())
}

func (p *Poller) setState(s State) {
	p.state.Store(int32(s))
}

// Run loops cycles until ctx is canceled. A canceled mid-cycle run
// publishes nothing for that cycle.
func (p *Poller) Run(ctx context.Context) error {
	for {
		snap, err := p.Cycle(ctx)
		if err != nil {
			return err
		}
		p.sink.Render(snap)

		p.setState(StateIdle)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Interval):
		}
	}
}

// Cycle performs one full poll cycle and returns the snapshot. Only
// context cancellation produces an error; feed failures are folded
// into per-route statuses.
func (p *Poller) Cycle(ctx context.Context) (model.RankedSnapshot, error) {
	started := p.TimeNow()
	now := started

	p.setState(StateFetching)
	fetched := p.fetchAll(ctx, now)

	if err := ctx.Err(); err != nil {
		return model.RankedSnapshot{}, err
	}

	p.setState(StateComputing)
	results := make([]model.RouteResult, 0, len(p.routes))
	for _, route := range p.routes {
		results = append(results, p.computeRoute(route, fetched[route.FeedID], now))
	}

	snap := Rank(results, now)

	p.setState(StatePublished)
	if p.Metrics != nil {
		p.Metrics.CycleObserve(p.TimeNow().Sub(started))
		eligible := 0
		for _, res := range snap.Results {
			if res.Eligible() {
				eligible++
			}
		}
		best := 0
		if snap.Best != nil {
			best = snap.Best.TotalMin
		}
		p.Metrics.SnapshotPublished(eligible, best)
	}

	return snap, nil
}

// feedOutcome is the result of fetching and parsing one feed id this
// cycle.
type feedOutcome struct {
	records []model.FeedRecord
	err     error
}

// fetchAll fetches every distinct feed id referenced by the routes,
// concurrently. Feeds shared by multiple routes are fetched once. It
// waits for every fetch to resolve, success or not, before
// returning: partial results, not fail-fast.
func (p *Poller) fetchAll(ctx context.Context, now time.Time) map[string]*feedOutcome {
	outcomes := map[string]*feedOutcome{}
	for _, route := range p.routes {
		if _, ok := outcomes[route.FeedID]; !ok {
			outcomes[route.FeedID] = &feedOutcome{}
		}
	}

	var wg sync.WaitGroup
	for feedID, outcome := range outcomes {
		wg.Add(1)
		go func(feedID string, outcome *feedOutcome) {
			defer wg.Done()

			payload, err := p.fetcher.Fetch(ctx, feedID)
			if err != nil {
				outcome.err = err
				return
			}
			rt, err := parse.ParseFeed(feedID, payload)
			if err != nil {
				outcome.err = err
				return
			}
			outcome.records = rt.Records
		}(feedID, outcome)
	}
	wg.Wait()

	// Record fetch successes for staleness tracking. Each outcome
	// slot is written by exactly one goroutine, all joined above.
	for feedID, outcome := range outcomes {
		if outcome.err == nil {
			p.lastGood[feedID] = goodFeed{records: outcome.records, at: now}
		} else if p.Metrics != nil {
			p.Metrics.FetchErrorInc(feedID)
		}
	}

	return outcomes
}

// computeRoute resolves one route's result, applying the staleness
// and failure policy:
//
//   - fetch succeeded: compute from fresh records.
//   - fetch failed, no prior good data: ERROR.
//   - fetch failed, prior good data older than the threshold: STALE.
//   - fetch failed, prior good data still fresh: compute from it.
func (p *Poller) computeRoute(route model.RouteConfig, outcome *feedOutcome, now time.Time) model.RouteResult {
	records := outcome.records

	if outcome.err != nil {
		prior, ok := p.lastGood[route.FeedID]
		if !ok {
			return model.RouteResult{
				Route:  route,
				Status: model.StatusError,
				Err:    outcome.err.Error(),
			}
		}
		if now.Sub(prior.at) > p.Staleness {
			return model.RouteResult{Route: route, Status: model.StatusStale}
		}
		records = prior.records
	}

	arrivals := Extract(records, route.OriginStop, now)
	return ComputeETA(route, arrivals, records, p.estimator, now)
}
