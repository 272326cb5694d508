package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EmissionFactor is the kg CO2 emitted per km by a transport mode.
type EmissionFactor struct {
	Mode  string  `json:"mode" mapstructure:"mode"`
	PerKm float64 `json:"perKm" mapstructure:"per_km"`
}

// AccommodationFactor is the kg CO2 emitted per night by a lodging type.
type AccommodationFactor struct {
	Type     string  `json:"type" mapstructure:"type"`
	PerNight float64 `json:"perNightKg" mapstructure:"per_night"`
}

// RouteSegment is a leg between two consecutive stops. Derived, never stored.
type RouteSegment struct {
	From       Coordinate `json:"from"`
	To         Coordinate `json:"to"`
	DistanceKm float64    `json:"distanceKm"`
	Day        int        `json:"day"` // day index of the destination stop
}

// ModeEmissions is the whole-trip total for one transport mode.
type ModeEmissions struct {
	Mode             string  `json:"mode"`
	Label            string  `json:"label"`
	TotalEmissionsKg float64 `json:"totalEmissionsKg"`
	PerKm            float64 `json:"perKm"`
}

// DailyEmissions is one row of the per-day table. In JSON the per-mode
// amounts are flattened next to the fixed keys, e.g. {"day":"Day 1","car":1.2}.
type DailyEmissions struct {
	Day        string
	DayIndex   int
	DistanceKm float64
	ByMode     map[string]float64
}

// Reserved keys of the flattened daily row; no mode may use them.
const (
	dailyKeyDay      = "day"
	dailyKeyDayIndex = "dayIndex"
	dailyKeyDistance = "distanceKm"
)

// IsReservedModeName reports whether a mode name collides with a daily row key.
func IsReservedModeName(mode string) bool {
	switch mode {
	case dailyKeyDay, dailyKeyDayIndex, dailyKeyDistance:
		return true
	}
	return false
}

func (d DailyEmissions) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.ByMode)+3)
	for mode, kg := range d.ByMode {
		m[mode] = kg
	}
	m[dailyKeyDay] = d.Day
	m[dailyKeyDayIndex] = d.DayIndex
	m[dailyKeyDistance] = d.DistanceKm
	return json.Marshal(m)
}

func (d *DailyEmissions) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DailyEmissions{ByMode: make(map[string]float64, len(raw))}
	for k, v := range raw {
		var err error
		switch k {
		case dailyKeyDay:
			err = json.Unmarshal(v, &d.Day)
		case dailyKeyDayIndex:
			err = json.Unmarshal(v, &d.DayIndex)
		case dailyKeyDistance:
			err = json.Unmarshal(v, &d.DistanceKm)
		default:
			var kg float64
			if err = json.Unmarshal(v, &kg); err == nil {
				d.ByMode[k] = kg
			}
		}
		if err != nil {
			return fmt.Errorf("daily emissions %q: %w", k, err)
		}
	}
	return nil
}

// OffsetSuggestion converts emissions into illustrative offsets.
type OffsetSuggestion struct {
	TreesToPlant       int `json:"treesToPlant"`
	LEDBulbsEquivalent int `json:"ledBulbsEquivalent"`
}

// AccommodationEmissions is the optional lodging estimate.
type AccommodationEmissions struct {
	Type       string  `json:"type"`
	Nights     int     `json:"nights"`
	PerNightKg float64 `json:"perNightKg"`
	TotalKg    float64 `json:"totalKg"`
}

// EmissionsReport is the result of one estimation. Immutable once returned.
type EmissionsReport struct {
	TotalDistanceKm         float64                 `json:"totalDistanceKm"`
	TripDurationDays        int                     `json:"tripDurationDays"`
	SegmentCount            int                     `json:"segmentCount"`
	EmissionsByMode         []ModeEmissions         `json:"emissionsByMode"`
	DailyEmissions          []DailyEmissions        `json:"dailyEmissions"`
	SelectedMode            string                  `json:"selectedMode"`
	SelectedModeEmissionsKg float64                 `json:"selectedModeEmissionsKg"`
	OffsetSuggestion        OffsetSuggestion        `json:"offsetSuggestion"`
	Accommodation           *AccommodationEmissions `json:"accommodation,omitempty"`
	Bounds                  *Bounds                 `json:"bounds,omitempty"`
}

// EstimateOptions tune a single estimation.
type EstimateOptions struct {
	SelectedMode      string `json:"selectedMode,omitempty"`
	AccommodationType string `json:"accommodationType,omitempty"`
}

// FootprintRequest is an estimation request as received over HTTP or NATS.
// Either Itinerary or TripData must be set; Itinerary wins when both are.
type FootprintRequest struct {
	RequestID         string     `json:"requestId,omitempty"`
	Source            string     `json:"source,omitempty"`
	Itinerary         *Itinerary `json:"itinerary,omitempty"`
	TripData          *TripData  `json:"tripData,omitempty"`
	SelectedMode      string     `json:"selectedMode,omitempty"`
	AccommodationType string     `json:"accommodationType,omitempty"`
}

// ResolveItinerary returns the itinerary carried by the request.
func (r FootprintRequest) ResolveItinerary() (Itinerary, bool) {
	switch {
	case r.Itinerary != nil:
		return *r.Itinerary, true
	case r.TripData != nil:
		return r.TripData.ToItinerary(), true
	}
	return Itinerary{}, false
}

// Options extracts the estimation options.
func (r FootprintRequest) Options() EstimateOptions {
	return EstimateOptions{SelectedMode: r.SelectedMode, AccommodationType: r.AccommodationType}
}

// FootprintRecord is a stored estimation.
type FootprintRecord struct {
	ID        string          `json:"id"`
	Source    string          `json:"source"`
	Report    EmissionsReport `json:"report"`
	CreatedAt time.Time       `json:"createdAt"`
}

// FactorCatalog describes the factors an estimator uses.
type FactorCatalog struct {
	Modes            []EmissionFactor      `json:"modes"`
	Accommodations   []AccommodationFactor `json:"accommodations"`
	DefaultMode      string                `json:"defaultMode"`
	TreeKgPerYear    float64               `json:"treeKgPerYear"`
	LEDBulbKgPerYear float64               `json:"ledBulbKgPerYear"`
}
