// Package services provides the domain services of route building. They work on
// aggregates already loaded in memory and never touch storage or the network.
//
// The package includes:
//   - DriverEligibility: filters and ranks drivers that can take a new route on a date
//   - RoutePartitioner: greedy, zone by zone split of pending deliveries between drivers
//   - StopSequencer: nearest-neighbour stop ordering with an optional 2-opt pass
//   - GridZoneResolver: derives a zone from a geocoordinate
package services
