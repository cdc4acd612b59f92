// Package route contains the Route aggregate managed by the route lifecycle manager.
//
//	planned ──> active ──> [completed]
//	   │           └─────> [cancelled]
//	   └─────────────────> [cancelled]
//
// Stops are never removed from a route: a stop that will not be served is
// marked cancelled so that total_deliveries keeps its planning value.
package route
