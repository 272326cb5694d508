// Package footprint estimates the travel distance and transport emissions of
// an itinerary.
//
// Distances are great-circle (haversine) distances between consecutive stops
// across the whole trip; the previous-stop cursor is not reset at day
// boundaries, so the first stop of a day is connected to the last stop of the
// previous non-empty day. Every transport mode in the factor table is evaluated
// independently over the same distances.
//
// Estimation is pure: no I/O, no shared mutable state. An Estimator may be used
// from many goroutines.
package footprint
