// Package sink holds display collaborators: consumers of ranked
// snapshots. Sinks are fire and forget; the engine never sees their
// failures.
package sink

import (
	"fmt"
	"io"
	"time"

	"github.com/subwaysign/commute/model"
)

// Console renders a snapshot as a text board, one line per route:
//
//	2/3: Leave in 4m, Board 08:12 -> Arrive 08:43 (31 min)
//	R: NO_DATA
//
// followed by a BEST line when a route is eligible.
type Console struct {
	Out io.Writer

	// Location for wall clock formatting; nil means local time.
	Location *time.Location

	// MaxArrivalMinutes hides eligible routes slower than this
	// many minutes. Zero disables the filter. The best route is
	// always shown.
	MaxArrivalMinutes int

	// UseColor enables ANSI truecolor using each route's
	// configured color.
	UseColor bool
}

func (c *Console) Render(snap model.RankedSnapshot) {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}

	fmt.Fprintf(c.Out, "=== %s ===\n", snap.Timestamp.In(loc).Format("15:04:05"))

	for i, res := range snap.Results {
		line := c.resultLine(res, loc)
		if res.Eligible() && c.MaxArrivalMinutes > 0 && res.TotalMin > c.MaxArrivalMinutes && i > 0 {
			continue
		}
		if c.UseColor {
			rgb := res.Route.DisplayColor()
			fmt.Fprintf(c.Out, "\x1b[38;2;%d;%d;%dm%s\x1b[0m\n", rgb.R, rgb.G, rgb.B, line)
		} else {
			fmt.Fprintln(c.Out, line)
		}
	}

	if snap.Best != nil {
		fmt.Fprintf(c.Out, "BEST: %s\n", snap.Best.Route.Name)
	}
}

func (c *Console) resultLine(res model.RouteResult, loc *time.Location) string {
	switch res.Status {
	case model.StatusOK:
		return fmt.Sprintf("%s: Leave in %dm, Board %s -> Arrive %s (%d min)",
			res.Route.Name,
			res.LeaveInMin,
			res.Departure.In(loc).Format("15:04"),
			res.ETA.In(loc).Format("15:04"),
			res.TotalMin,
		)
	case model.StatusError:
		return fmt.Sprintf("%s: ERROR - %s", res.Route.Name, res.Err)
	default:
		return fmt.Sprintf("%s: %s", res.Route.Name, res.Status)
	}
}
