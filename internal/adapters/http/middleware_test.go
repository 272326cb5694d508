package http

import "testing"

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		path, pattern string
		want          bool
	}{
		{"/v1/carbon", "/v1/carbon", true},
		{"/v1/footprints/abc", "/v1/footprints/:id", true},
		{"/v1/footprints/abc/", "/v1/footprints/:id", true},
		{"/v1/footprints", "/v1/footprints/:id", false},
		{"/v1/footprints/abc/extra", "/v1/footprints/:id", false},
		{"/v2/footprints/abc", "/v1/footprints/:id", false},
		{"/v1/carbonx", "/v1/carbon", false},
	}
	for _, tt := range tests {
		if got := matchPattern(tt.path, tt.pattern); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.path, tt.pattern, got, tt.want)
		}
	}
}

func TestETagMatches(t *testing.T) {
	const etag = `W/"0123456789abcdef"`
	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"empty", "", false},
		{"exact", etag, true},
		{"strong form", `"0123456789abcdef"`, true},
		{"wildcard", "*", true},
		{"in list", `"other", W/"0123456789abcdef"`, true},
		{"no match", `W/"fedcba9876543210"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := etagMatches(tt.header, etag); got != tt.want {
				t.Errorf("etagMatches(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}
