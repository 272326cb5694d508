package footprint

import (
	"github.com/samirrijal/tripfootprint/internal/core/domain"
	"github.com/samirrijal/tripfootprint/internal/pkg/geospatial"
)

// Distance returns the great-circle distance in km between two coordinates.
func Distance(a, b domain.Coordinate) float64 {
	return geospatial.HaversineKm(a.Lat, a.Lon, b.Lat, b.Lon)
}

// DayDistance is the distance subtotal attributed to one day.
type DayDistance struct {
	Day        int // 1-based
	DistanceKm float64
}

// Route is the walk over an itinerary.
type Route struct {
	Segments []domain.RouteSegment
	// Days holds one entry per day that received at least one segment,
	// in ascending day order.
	Days    []DayDistance
	TotalKm float64
	// Bounds covers every stop; nil when the itinerary has no stops.
	Bounds *domain.Bounds
}

// BuildRoute parses every stop and connects consecutive stops across the
// whole trip. The first malformed coordinate aborts the walk with a
// *domain.CoordinateError.
func BuildRoute(it domain.Itinerary) (Route, error) {
	var (
		r    Route
		prev *domain.Coordinate
	)
	if n := it.StopCount(); n > 1 {
		r.Segments = make([]domain.RouteSegment, 0, n-1)
	}

	for di, day := range it.Days {
		dayIndex := di + 1
		for si, stop := range day.Stops {
			coord, err := domain.ParseCoordinate(stop.Coordinates)
			if err != nil {
				return Route{}, &domain.CoordinateError{
					Day:    dayIndex,
					Stop:   si + 1,
					Name:   stop.Name,
					Raw:    stop.Coordinates,
					Reason: err.Error(),
				}
			}

			if r.Bounds == nil {
				b := domain.NewBounds(coord)
				r.Bounds = &b
			} else {
				r.Bounds.Extend(coord)
			}

			if prev != nil {
				d := Distance(*prev, coord)
				r.Segments = append(r.Segments, domain.RouteSegment{
					From:       *prev,
					To:         coord,
					DistanceKm: d,
					Day:        dayIndex,
				})
				r.TotalKm += d
				if last := len(r.Days) - 1; last >= 0 && r.Days[last].Day == dayIndex {
					r.Days[last].DistanceKm += d
				} else {
					r.Days = append(r.Days, DayDistance{Day: dayIndex, DistanceKm: d})
				}
			}
			c := coord
			prev = &c
		}
	}

	return r, nil
}
