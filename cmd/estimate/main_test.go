package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/tripfootprint/internal/core/domain"
	"github.com/samirrijal/tripfootprint/internal/core/footprint"
	"github.com/samirrijal/tripfootprint/internal/core/usecases"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		stops   int
		wantErr bool
	}{
		{"request body", `{"itinerary":{"days":[{"stops":[{"coordinates":"1, 1"}]}]},"selectedMode":"car"}`, 1, false},
		{"trip document", `{"tripData":{"itinerary":[{"day":"Day 1","plan":[{"placeName":"A","geoCoordinates":"1, 1"},{"placeName":"B","geoCoordinates":"2, 2"}]}]}}`, 2, false},
		{"bare itinerary", `{"days":[{"stops":[{"coordinates":"1, 1"}]}]}`, 1, false},
		{"empty bare itinerary", `{"days":[]}`, 0, false},
		{"nothing usable", `{"hello":"world"}`, 0, true},
		{"not json", `trip`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := parseDocument([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			it, ok := req.ResolveItinerary()
			require.True(t, ok)
			assert.Equal(t, tt.stops, it.StopCount())
		})
	}
}

func newService(t *testing.T) *usecases.FootprintService {
	t.Helper()
	est, err := footprint.New(footprint.DefaultTable())
	require.NoError(t, err)
	return usecases.NewFootprintService(est, nil, nil, nil)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_SingleFilePrintsReport(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "trip.json", `{"days":[{"stops":[{"coordinates":"0, 0"},{"coordinates":"0, 1"}]}]}`)

	var out bytes.Buffer
	failed := run(context.Background(), newService(t), []string{file}, options{mode: "plane", accommodation: "hotel", concurrency: 1}, &out)
	require.Zero(t, failed)

	var report domain.EmissionsReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, "plane", report.SelectedMode)
	assert.InDelta(t, 111.19, report.TotalDistanceKm, 0.01)
	require.NotNil(t, report.Accommodation)
	assert.Equal(t, 0, report.Accommodation.Nights)
}

func TestRun_ManyFilesKeepOrder(t *testing.T) {
	dir := t.TempDir()
	good := `{"days":[{"stops":[{"coordinates":"0, 0"},{"coordinates":"1, 0"}]}]}`
	files := []string{
		writeFile(t, dir, "a.json", good),
		writeFile(t, dir, "b.json", `{"days":[{"stops":[{"coordinates":"north pole"}]}]}`),
		filepath.Join(dir, "missing.json"),
		writeFile(t, dir, "d.json", good),
	}

	var out bytes.Buffer
	failed := run(context.Background(), newService(t), files, options{concurrency: 2}, &out)
	assert.Equal(t, 2, failed)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	for i, line := range lines {
		var r result
		require.NoError(t, json.Unmarshal([]byte(line), &r))
		assert.Equal(t, files[i], r.File)
		switch i {
		case 0, 3:
			assert.Empty(t, r.Error)
			require.NotNil(t, r.Report)
			assert.Equal(t, "train", r.Report.SelectedMode)
		case 1:
			assert.Contains(t, r.Error, "invalid coordinate")
		case 2:
			assert.NotEmpty(t, r.Error)
		}
	}
}

func TestRun_RecordWithoutStorage(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "trip.json", `{"days":[]}`)

	var out bytes.Buffer
	failed := run(context.Background(), newService(t), []string{file}, options{record: true, source: "cli"}, &out)
	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), domain.ErrStorageUnavailable.Error())
}
