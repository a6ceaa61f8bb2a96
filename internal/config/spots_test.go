package config

import (
	"os"
	"path/filepath"
	"testing"

	"parking-monitor/internal/domain/parking"
)

func writeSpotsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spots.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSpots(t *testing.T) {
	path := writeSpotsFile(t, `[
		{"id": "A1", "name": "Spot A1", "region": {"rect": {"x": 0, "y": 0, "width": 100, "height": 200}}},
		{"id": "B1", "name": "Spot B1", "region": {"polygon": [[200, 0], [300, 0], [320, 200], [210, 200]]}}
	]`)

	spots, err := LoadSpots(path)
	if err != nil {
		t.Fatalf("LoadSpots() error = %v", err)
	}
	if len(spots) != 2 {
		t.Fatalf("loaded %d spots, want 2", len(spots))
	}
	if spots[0].ID != "A1" || len(spots[0].Region.Points) != 4 {
		t.Errorf("spot A1 loaded as %+v", spots[0])
	}
	if spots[1].Region.Area() == 0 {
		t.Error("polygon spot has zero area")
	}
}

func TestLoadSpotsValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "empty layout",
			content: `[]`,
		},
		{
			name: "duplicate ids",
			content: `[
				{"id": "A1", "name": "One", "region": {"rect": {"x": 0, "y": 0, "width": 10, "height": 10}}},
				{"id": "A1", "name": "Two", "region": {"rect": {"x": 20, "y": 0, "width": 10, "height": 10}}}
			]`,
		},
		{
			name:    "missing id",
			content: `[{"id": "", "name": "One", "region": {"rect": {"x": 0, "y": 0, "width": 10, "height": 10}}}]`,
		},
		{
			name:    "missing name",
			content: `[{"id": "A1", "name": "", "region": {"rect": {"x": 0, "y": 0, "width": 10, "height": 10}}}]`,
		},
		{
			name:    "degenerate region",
			content: `[{"id": "A1", "name": "One", "region": {"rect": {"x": 0, "y": 0, "width": 0, "height": 10}}}]`,
		},
		{
			name:    "region without shape",
			content: `[{"id": "A1", "name": "One", "region": {}}]`,
		},
		{
			name:    "not json",
			content: `{{{`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSpotsFile(t, tt.content)
			if _, err := LoadSpots(path); err == nil {
				t.Error("LoadSpots() error = nil, want validation error")
			}
		})
	}
}

func TestLoadSpotsMissingFile(t *testing.T) {
	if _, err := LoadSpots(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("LoadSpots() error = nil for missing file")
	}
}

func TestValidateSpots(t *testing.T) {
	spots := []parking.Spot{
		{ID: "A1", Name: "Spot A1", Region: parking.RectRegion(parking.Rect{X: 0, Y: 0, Width: 10, Height: 10})},
	}
	if err := ValidateSpots(spots); err != nil {
		t.Errorf("ValidateSpots() error = %v for a valid layout", err)
	}
}

func TestParseThresholds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []float64
	}{
		{name: "single", input: "5", want: []float64{5}},
		{name: "multiple with spaces", input: "3, 5, 8", want: []float64{3, 5, 8}},
		{name: "drops non positive", input: "0,-1,2", want: []float64{2}},
		{name: "drops garbage", input: "abc,4", want: []float64{4}},
		{name: "empty", input: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseThresholds(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseThresholds(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("parseThresholds(%q)[%d] = %v, want %v", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}
