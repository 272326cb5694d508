package domain

import "fmt"

// Itinerary is an ordered list of trip days.
type Itinerary struct {
	Days []Day `json:"days"`
}

// Day is one day of a trip with its stops in visiting order.
type Day struct {
	Label string `json:"dayLabel"`
	Stops []Stop `json:"stops"`
}

// Stop is a place visited during the trip. Coordinates hold the raw
// "lat, lon" text; parsing happens when the itinerary is estimated.
type Stop struct {
	Name        string `json:"name"`
	Coordinates string `json:"coordinates"`
}

// StopCount returns the number of stops across all days.
func (it Itinerary) StopCount() int {
	n := 0
	for _, d := range it.Days {
		n += len(d.Stops)
	}
	return n
}

// DayLabel returns the label of the 1-based day index, or "Day N" if unset.
func (it Itinerary) DayLabel(day int) string {
	if day >= 1 && day <= len(it.Days) && it.Days[day-1].Label != "" {
		return it.Days[day-1].Label
	}
	return fmt.Sprintf("Day %d", day)
}

// TripDocument is the document produced by the itinerary generator.
type TripDocument struct {
	TripData TripData `json:"tripData"`
}

// TripData holds the generated plan.
type TripData struct {
	Itinerary []PlanDay `json:"itinerary"`
}

// PlanDay is a generated day.
type PlanDay struct {
	Day  string      `json:"day"`
	Plan []PlanPlace `json:"plan"`
}

// PlanPlace is a generated place with its "lat, lon" coordinates.
type PlanPlace struct {
	PlaceName      string `json:"placeName"`
	PlaceDetails   string `json:"placeDetails,omitempty"`
	GeoCoordinates string `json:"geoCoordinates"`
	TicketPricing  string `json:"ticketPricing,omitempty"`
	TimeTravel     string `json:"timeTravel,omitempty"`
}

// ToItinerary converts the generated plan into an Itinerary.
func (td TripData) ToItinerary() Itinerary {
	days := make([]Day, 0, len(td.Itinerary))
	for _, pd := range td.Itinerary {
		stops := make([]Stop, 0, len(pd.Plan))
		for _, p := range pd.Plan {
			stops = append(stops, Stop{Name: p.PlaceName, Coordinates: p.GeoCoordinates})
		}
		days = append(days, Day{Label: pd.Day, Stops: stops})
	}
	return Itinerary{Days: days}
}
