package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDailyEmissions_UnmarshalJSON(t *testing.T) {
	var d DailyEmissions
	if err := json.Unmarshal([]byte(`{"day":"Day 1","dayIndex":1,"distanceKm":12.5,"car":2.1375,"walking":0}`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Day != "Day 1" || d.DayIndex != 1 || d.DistanceKm != 12.5 {
		t.Errorf("unexpected row: %+v", d)
	}
	if len(d.ByMode) != 2 || d.ByMode["car"] != 2.1375 {
		t.Errorf("unexpected modes: %v", d.ByMode)
	}
}

func TestDailyEmissions_UnmarshalJSONBadModeValue(t *testing.T) {
	var d DailyEmissions
	err := json.Unmarshal([]byte(`{"day":"Day 1","bus":"lots"}`), &d)
	if err == nil {
		t.Fatal("expected error for non-numeric mode value")
	}
	if !strings.Contains(err.Error(), `"bus"`) {
		t.Errorf("expected the key in the error, got %v", err)
	}
	if _, ok := d.ByMode["bus"]; ok {
		t.Error("mode with a bad value must not be recorded")
	}
}
