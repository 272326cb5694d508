package footprint

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
)

// ModeTotals evaluates every mode over the total distance and returns the
// result sorted ascending by emissions. Ties keep table order.
func ModeTotals(t Table, totalKm float64) []domain.ModeEmissions {
	out := make([]domain.ModeEmissions, 0, len(t.Modes))
	for _, m := range t.Modes {
		out = append(out, domain.ModeEmissions{
			Mode:             m.Mode,
			Label:            modeLabel(m.Mode),
			TotalEmissionsKg: totalKm * m.PerKm,
			PerKm:            m.PerKm,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalEmissionsKg < out[j].TotalEmissionsKg
	})
	return out
}

// DailyTotals evaluates every mode over each day's subtotal.
func DailyTotals(t Table, it domain.Itinerary, days []DayDistance) []domain.DailyEmissions {
	out := make([]domain.DailyEmissions, 0, len(days))
	for _, d := range days {
		byMode := make(map[string]float64, len(t.Modes))
		for _, m := range t.Modes {
			byMode[m.Mode] = d.DistanceKm * m.PerKm
		}
		out = append(out, domain.DailyEmissions{
			Day:        it.DayLabel(d.Day),
			DayIndex:   d.Day,
			DistanceKm: d.DistanceKm,
			ByMode:     byMode,
		})
	}
	return out
}

// Offset converts kg CO2 into trees and LED bulbs, rounding up.
func Offset(t Table, kg float64) domain.OffsetSuggestion {
	return domain.OffsetSuggestion{
		TreesToPlant:       int(math.Ceil(kg / t.TreeKgPerYear)),
		LEDBulbsEquivalent: int(math.Ceil(kg / t.LEDBulbKgPerYear)),
	}
}

// modeLabel upper-cases the first letter: "train" -> "Train".
func modeLabel(mode string) string {
	r, size := utf8.DecodeRuneInString(mode)
	if r == utf8.RuneError {
		return mode
	}
	var b strings.Builder
	b.WriteRune(unicode.ToUpper(r))
	b.WriteString(mode[size:])
	return b.String()
}
