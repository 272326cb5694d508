package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinate is returned when a stop's coordinates are missing,
	// malformed or out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrUnknownTransportMode is returned when the selected mode is not in the
	// emission factor table.
	ErrUnknownTransportMode = errors.New("unknown transport mode")

	// ErrUnknownAccommodation is returned for an accommodation type with no factor.
	ErrUnknownAccommodation = errors.New("unknown accommodation type")

	// ErrInvalidFactorTable is returned when an emission factor table is unusable.
	ErrInvalidFactorTable = errors.New("invalid emission factor table")

	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable is returned when persistence is not configured.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMessagingUnavailable is returned when no event publisher is configured.
	ErrMessagingUnavailable = errors.New("messaging unavailable")

	// ErrMissingItinerary is returned when a request carries neither an
	// itinerary nor a trip document.
	ErrMissingItinerary = errors.New("itinerary or tripData is required")
)

// CoordinateError pinpoints the stop whose coordinates could not be used.
type CoordinateError struct {
	Day    int    // 1-based day index
	Stop   int    // 1-based stop index within the day
	Name   string // stop name
	Raw    string // raw coordinate text
	Reason string
}

func (e *CoordinateError) Error() string {
	name := e.Name
	if name == "" {
		name = "unnamed stop"
	}
	return fmt.Sprintf("day %d stop %d (%s): %s: %q: %s", e.Day, e.Stop, name, ErrInvalidCoordinate, e.Raw, e.Reason)
}

// Unwrap makes errors.Is(err, ErrInvalidCoordinate) hold.
func (e *CoordinateError) Unwrap() error {
	return ErrInvalidCoordinate
}

// IsInvalidInput reports whether err was caused by the request itself, so
// retrying it cannot succeed.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidCoordinate) ||
		errors.Is(err, ErrUnknownTransportMode) ||
		errors.Is(err, ErrUnknownAccommodation) ||
		errors.Is(err, ErrMissingItinerary)
}
