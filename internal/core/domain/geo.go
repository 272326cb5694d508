package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate represents a geographic coordinate (WGS 84) in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String renders the coordinate in the "lat, lon" wire form.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// Validate checks that both components are finite and within range.
func (c Coordinate) Validate() error {
	if err := validateComponent("latitude", c.Lat, 90); err != nil {
		return err
	}
	return validateComponent("longitude", c.Lon, 180)
}

func validateComponent(field string, v, limit float64) error {
	switch {
	case math.IsNaN(v):
		return fmt.Errorf("%s is NaN", field)
	case math.IsInf(v, 0):
		return fmt.Errorf("%s is infinite", field)
	case v < -limit || v > limit:
		return fmt.Errorf("%s %g out of range [-%g, %g]", field, v, limit, limit)
	}
	return nil
}

// ParseCoordinate parses the "lat, lon" text form used by itinerary documents.
// The returned error describes the problem; callers wrap it with position info.
func ParseCoordinate(raw string) (Coordinate, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Coordinate{}, fmt.Errorf("coordinates are missing")
	}

	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("expected \"lat, lon\", got %d components", len(parts))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("latitude %q is not a number", strings.TrimSpace(parts[0]))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("longitude %q is not a number", strings.TrimSpace(parts[1]))
	}

	c := Coordinate{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// NewBounds returns a degenerate box around a single point.
func NewBounds(c Coordinate) Bounds {
	return Bounds{MinLat: c.Lat, MinLon: c.Lon, MaxLat: c.Lat, MaxLon: c.Lon}
}

// Extend grows the box to include c.
func (b *Bounds) Extend(c Coordinate) {
	b.MinLat = math.Min(b.MinLat, c.Lat)
	b.MinLon = math.Min(b.MinLon, c.Lon)
	b.MaxLat = math.Max(b.MaxLat, c.Lat)
	b.MaxLon = math.Max(b.MaxLon, c.Lon)
}
