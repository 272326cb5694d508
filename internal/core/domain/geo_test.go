package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseCoordinate(t *testing.T) {
	valid := map[string]Coordinate{
		"48.8566, 2.3522":    {Lat: 48.8566, Lon: 2.3522},
		" -33.8688,151.2093": {Lat: -33.8688, Lon: 151.2093},
		"90, -180":           {Lat: 90, Lon: -180},
	}
	for in, want := range valid {
		got, err := ParseCoordinate(in)
		if err != nil {
			t.Errorf("ParseCoordinate(%q): unexpected error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseCoordinate(%q) = %+v, want %+v", in, got, want)
		}
	}

	invalid := []string{
		"",
		"   ",
		"48.8566",
		"48.8566, 2.3522, 10",
		"abc, 2.3522",
		"48.8566, east",
		"NaN, 0",
		"0, Inf",
		"91, 0",
		"0, -180.5",
	}
	for _, in := range invalid {
		if _, err := ParseCoordinate(in); err == nil {
			t.Errorf("ParseCoordinate(%q): expected error", in)
		}
	}
}

func TestCoordinateString_RoundTrip(t *testing.T) {
	c := Coordinate{Lat: 43.263, Lon: -2.935}
	back, err := ParseCoordinate(c.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != c {
		t.Errorf("round trip mismatch: %+v vs %+v", back, c)
	}
}

func TestCoordinateError(t *testing.T) {
	err := error(&CoordinateError{Day: 2, Stop: 3, Name: "Louvre", Raw: "x", Reason: "bad"})
	if !errors.Is(err, ErrInvalidCoordinate) {
		t.Error("expected errors.Is to match ErrInvalidCoordinate")
	}
	if !strings.Contains(err.Error(), "day 2 stop 3 (Louvre)") {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestTripDataToItinerary(t *testing.T) {
	doc := `{"tripData":{"itinerary":[
		{"day":"Day 1","plan":[{"placeName":"Eiffel Tower","geoCoordinates":"48.8584, 2.2945"}]},
		{"day":"Day 2","plan":[{"placeName":"Louvre","geoCoordinates":"48.8606, 2.3376"},{"placeName":"Orsay","geoCoordinates":"48.8600, 2.3266"}]}
	]}}`
	var td TripDocument
	if err := json.Unmarshal([]byte(doc), &td); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	it := td.TripData.ToItinerary()
	if len(it.Days) != 2 {
		t.Fatalf("expected 2 days, got %d", len(it.Days))
	}
	if it.StopCount() != 3 {
		t.Errorf("expected 3 stops, got %d", it.StopCount())
	}
	if it.Days[1].Stops[0].Name != "Louvre" || it.Days[1].Stops[0].Coordinates != "48.8606, 2.3376" {
		t.Errorf("unexpected stop: %+v", it.Days[1].Stops[0])
	}
	if it.DayLabel(2) != "Day 2" {
		t.Errorf("unexpected label %q", it.DayLabel(2))
	}
}

func TestFootprintRequest_ResolveItinerary(t *testing.T) {
	if _, ok := (FootprintRequest{}).ResolveItinerary(); ok {
		t.Error("expected no itinerary")
	}

	it := &Itinerary{Days: []Day{{Label: "A"}}}
	td := &TripData{Itinerary: []PlanDay{{Day: "B"}, {Day: "C"}}}

	got, ok := FootprintRequest{Itinerary: it, TripData: td}.ResolveItinerary()
	if !ok || len(got.Days) != 1 || got.Days[0].Label != "A" {
		t.Errorf("expected explicit itinerary to win, got %+v", got)
	}

	got, ok = FootprintRequest{TripData: td}.ResolveItinerary()
	if !ok || len(got.Days) != 2 {
		t.Errorf("expected trip data conversion, got %+v", got)
	}
}
