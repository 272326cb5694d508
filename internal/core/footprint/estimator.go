package footprint

import (
	"fmt"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

// Estimator turns itineraries into emissions reports using a fixed Table.
type Estimator struct {
	table Table
}

// New validates the table and returns an Estimator.
func New(table Table) (*Estimator, error) {
	if table.DefaultMode == "" {
		table.DefaultMode = DefaultSelectedMode
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{table: table}, nil
}

// Table returns the estimator's factor table.
func (e *Estimator) Table() Table {
	return e.table
}

// Estimate computes the report for an itinerary. Options are checked before
// any coordinate is parsed, so an unknown mode fails even for an empty trip.
func (e *Estimator) Estimate(it domain.Itinerary, opts domain.EstimateOptions) (*domain.EmissionsReport, error) {
	mode := opts.SelectedMode
	if mode == "" {
		mode = e.table.DefaultMode
	}
	factor, ok := e.table.Factor(mode)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTransportMode, mode)
	}

	var perNight float64
	if opts.AccommodationType != "" {
		if perNight, ok = e.table.Accommodation(opts.AccommodationType); !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAccommodation, opts.AccommodationType)
		}
	}

	route, err := BuildRoute(it)
	if err != nil {
		return nil, err
	}

	selected := route.TotalKm * factor
	report := &domain.EmissionsReport{
		TotalDistanceKm:         route.TotalKm,
		TripDurationDays:        len(it.Days),
		SegmentCount:            len(route.Segments),
		EmissionsByMode:         ModeTotals(e.table, route.TotalKm),
		DailyEmissions:          DailyTotals(e.table, it, route.Days),
		SelectedMode:            mode,
		SelectedModeEmissionsKg: selected,
		OffsetSuggestion:        Offset(e.table, selected),
		Bounds:                  route.Bounds,
	}

	if opts.AccommodationType != "" {
		nights := max(len(it.Days)-1, 0)
		report.Accommodation = &domain.AccommodationEmissions{
			Type:       opts.AccommodationType,
			Nights:     nights,
			PerNightKg: perNight,
			TotalKg:    float64(nights) * perNight,
		}
	}

	return report, nil
}
