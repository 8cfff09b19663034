package traveltime

import (
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/spkg/bom"

	"github.com/subwaysign/commute/model"
)

// Table maps (origin stop, destination stop) pairs to transit
// minutes, loaded from a CSV file. Lets riders tune estimates per
// stop pair without touching feed data.
type Table struct {
	minutes map[stopPair]int
}

type stopPair struct {
	origin string
	dest   string
}

type travelTimeCSV struct {
	OriginStop string `csv:"origin_stop"`
	DestStop   string `csv:"dest_stop"`
	Minutes    int    `csv:"minutes"`
}

// LoadTable reads a travel-time table from CSV with columns
// origin_stop, dest_stop, minutes. A leading BOM is tolerated; some
// spreadsheet exports include one.
func LoadTable(r io.Reader) (*Table, error) {
	rows := []*travelTimeCSV{}
	if err := gocsv.Unmarshal(bom.NewReader(r), &rows); err != nil {
		return nil, errors.Wrap(err, "reading travel time csv")
	}

	t := &Table{minutes: map[stopPair]int{}}
	for _, row := range rows {
		if row.OriginStop == "" || row.DestStop == "" {
			return nil, errors.New("travel time row missing stop id")
		}
		if row.Minutes <= 0 {
			return nil, errors.Errorf("invalid minutes %d for %s->%s", row.Minutes, row.OriginStop, row.DestStop)
		}
		t.minutes[stopPair{row.OriginStop, row.DestStop}] = row.Minutes
	}

	return t, nil
}

// LoadTableFile reads a travel-time table from a file path.
func LoadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening travel time table")
	}
	defer f.Close()

	return LoadTable(f)
}

func (t *Table) Estimate(route model.RouteConfig, dep model.Arrival, records []model.FeedRecord) (time.Duration, bool) {
	min, ok := t.minutes[stopPair{route.OriginStop, route.DestStop}]
	if !ok {
		return 0, false
	}
	return time.Duration(min) * time.Minute, true
}
