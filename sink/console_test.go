package sink_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/subwaysign/commute/model"
	"github.com/subwaysign/commute/sink"
)

var now = time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)

func snapshot() model.RankedSnapshot {
	results := []model.RouteResult{
		{
			Route:      model.RouteConfig{Name: "2/3"},
			Status:     model.StatusOK,
			Departure:  now.Add(9 * time.Minute),
			ETA:        now.Add(31 * time.Minute),
			TotalMin:   31,
			LeaveInMin: 4,
		},
		{
			Route:  model.RouteConfig{Name: "R"},
			Status: model.StatusNoData,
		},
		{
			Route:  model.RouteConfig{Name: "L"},
			Status: model.StatusError,
			Err:    "status 503",
		},
	}
	return model.RankedSnapshot{
		Timestamp: now,
		Results:   results,
		Best:      &results[0],
	}
}

func TestConsoleRender(t *testing.T) {
	buf := &bytes.Buffer{}
	c := &sink.Console{Out: buf, Location: time.UTC}

	c.Render(snapshot())

	out := buf.String()
	assert.Contains(t, out, "2/3: Leave in 4m, Board 08:09 -> Arrive 08:31 (31 min)")
	assert.Contains(t, out, "R: NO_DATA")
	assert.Contains(t, out, "L: ERROR - status 503")
	assert.Contains(t, out, "BEST: 2/3")
}

func TestConsoleMaxArrivalFilterKeepsBest(t *testing.T) {
	buf := &bytes.Buffer{}
	c := &sink.Console{Out: buf, Location: time.UTC, MaxArrivalMinutes: 20}

	c.Render(snapshot())

	// The best route exceeds the cap but is always shown.
	assert.Contains(t, buf.String(), "2/3: Leave in 4m")
}

func TestConsoleColorOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	c := &sink.Console{Out: buf, Location: time.UTC, UseColor: true}

	snap := snapshot()
	snap.Results[0].Route.Color = &model.Color{R: 238, G: 53, B: 46}
	c.Render(snap)

	assert.Contains(t, buf.String(), "\x1b[38;2;238;53;46m")
	// Routes without a configured color render white.
	assert.Contains(t, buf.String(), "\x1b[38;2;255;255;255m")
}
