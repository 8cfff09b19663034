package commute

import (
	"sort"
	"time"

	"github.com/subwaysign/commute/model"
)

// Rank orders one cycle's RouteResults best first.
//
// Eligible results (status OK) sort ascending by total minutes; the
// stable sort means configuration order breaks ties, so the
// first-declared route wins. Ineligible results follow in
// configuration order — every configured route appears in the
// snapshot even when it cannot win, so the display can show status
// text in place of a time.
func Rank(results []model.RouteResult, fetchedAt time.Time) model.RankedSnapshot {
	eligible := []model.RouteResult{}
	rest := []model.RouteResult{}
	for _, res := range results {
		if res.Eligible() {
			eligible = append(eligible, res)
		} else {
			rest = append(rest, res)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].TotalMin < eligible[j].TotalMin
	})

	snap := model.RankedSnapshot{
		Timestamp: fetchedAt,
		Results:   append(eligible, rest...),
	}
	if len(eligible) > 0 {
		snap.Best = &snap.Results[0]
	}

	return snap
}
