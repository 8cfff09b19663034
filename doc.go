// Package commute answers one question on repeat: given a set of
// configured transit routes, which one gets you to the office
// soonest, right now?
//
// Each poll cycle fetches the realtime feed behind every configured
// route, extracts the upcoming arrivals at each route's origin stop,
// converts them into door-to-door estimates (walk to the station,
// ride, walk to the office) and ranks the routes best first. Feed
// failures degrade the affected routes to an error status instead of
// aborting the cycle.
package commute
