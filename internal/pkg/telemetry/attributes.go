package telemetry

// Span attribute keys.
const (
	AttrItineraryDays  = "itinerary.days"
	AttrItineraryStops = "itinerary.stops"
	AttrSelectedMode   = "footprint.selected_mode"
	AttrDistanceKm     = "footprint.distance_km"
	AttrEmissionsKg    = "footprint.emissions_kg"
	AttrFootprintID    = "footprint.id"
	AttrSource         = "footprint.source"
	AttrCacheHit       = "cache.hit"
	AttrShared         = "singleflight.shared"
)

// Estimation outcomes, used as metric label values.
const (
	OutcomeOK                = "ok"
	OutcomeInvalidCoordinate = "invalid_coordinate"
	OutcomeUnknownMode       = "unknown_mode"
	OutcomeUnknownLodging    = "unknown_accommodation"
	OutcomeError             = "error"
)
