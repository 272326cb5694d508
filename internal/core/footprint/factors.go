package footprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

// Default offset constants: annual CO2 absorbed by one tree and saved by one
// LED bulb, in kg.
const (
	DefaultTreeKgPerYear    = 21.0
	DefaultLEDBulbKgPerYear = 34.0
	DefaultSelectedMode     = "train"
)

// Table is the emission factor configuration. Mode order is significant: it is
// the tie-break order of the recommendation listing.
type Table struct {
	Modes            []domain.EmissionFactor
	Accommodations   []domain.AccommodationFactor
	DefaultMode      string
	TreeKgPerYear    float64
	LEDBulbKgPerYear float64
}

// DefaultTable returns the built-in factors.
func DefaultTable() Table {
	return Table{
		Modes: []domain.EmissionFactor{
			{Mode: "walking", PerKm: 0},
			{Mode: "bicycle", PerKm: 0},
			{Mode: "bus", PerKm: 0.089},
			{Mode: "train", PerKm: 0.041},
			{Mode: "car", PerKm: 0.171},
			{Mode: "plane", PerKm: 0.255},
		},
		Accommodations: []domain.AccommodationFactor{
			{Type: "hotel", PerNight: 12.2},
			{Type: "hostel", PerNight: 5.5},
			{Type: "apartment", PerNight: 8.0},
		},
		DefaultMode:      DefaultSelectedMode,
		TreeKgPerYear:    DefaultTreeKgPerYear,
		LEDBulbKgPerYear: DefaultLEDBulbKgPerYear,
	}
}

// Validate reports every problem with the table in a single error.
func (t Table) Validate() error {
	var errs []string

	if len(t.Modes) == 0 {
		errs = append(errs, "at least one transport mode is required")
	}
	seen := make(map[string]bool, len(t.Modes))
	for i, m := range t.Modes {
		switch {
		case m.Mode == "":
			errs = append(errs, fmt.Sprintf("mode #%d has no name", i+1))
		case domain.IsReservedModeName(m.Mode):
			errs = append(errs, fmt.Sprintf("mode name %q is reserved", m.Mode))
		case seen[m.Mode]:
			errs = append(errs, fmt.Sprintf("mode %q is declared twice", m.Mode))
		}
		seen[m.Mode] = true
		if m.PerKm < 0 || math.IsNaN(m.PerKm) || math.IsInf(m.PerKm, 0) {
			errs = append(errs, fmt.Sprintf("mode %q has invalid factor %v", m.Mode, m.PerKm))
		}
	}

	seenAcc := make(map[string]bool, len(t.Accommodations))
	for _, a := range t.Accommodations {
		if a.Type == "" || seenAcc[a.Type] {
			errs = append(errs, fmt.Sprintf("accommodation type %q is empty or duplicated", a.Type))
		}
		seenAcc[a.Type] = true
		if a.PerNight < 0 || math.IsNaN(a.PerNight) || math.IsInf(a.PerNight, 0) {
			errs = append(errs, fmt.Sprintf("accommodation %q has invalid factor %v", a.Type, a.PerNight))
		}
	}

	if t.DefaultMode != "" && !seen[t.DefaultMode] {
		errs = append(errs, fmt.Sprintf("default mode %q is not in the table", t.DefaultMode))
	}
	if !(t.TreeKgPerYear > 0) {
		errs = append(errs, "tree absorption must be positive")
	}
	if !(t.LEDBulbKgPerYear > 0) {
		errs = append(errs, "LED bulb saving must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", domain.ErrInvalidFactorTable, strings.Join(errs, "\n  - "))
	}
	return nil
}

// Factor returns the kg CO2/km of a mode.
// Fingerprint identifies the factor values. Tables that differ in any factor,
// in mode order or in an offset constant have different fingerprints.
func (t Table) Fingerprint() string {
	data, _ := json.Marshal(t)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

func (t Table) Factor(mode string) (float64, bool) {
	for _, m := range t.Modes {
		if m.Mode == mode {
			return m.PerKm, true
		}
	}
	return 0, false
}

// Accommodation returns the kg CO2/night of a lodging type.
func (t Table) Accommodation(kind string) (float64, bool) {
	for _, a := range t.Accommodations {
		if a.Type == kind {
			return a.PerNight, true
		}
	}
	return 0, false
}
