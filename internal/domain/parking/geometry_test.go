package parking

import (
	"encoding/json"
	"math"
	"testing"
)

func TestOverlapRatio(t *testing.T) {
	tests := []struct {
		name     string
		region   Region
		box      Rect
		expected float64
	}{
		{
			name:     "box fully inside rect region",
			region:   RectRegion(Rect{X: 0, Y: 0, Width: 100, Height: 100}),
			box:      Rect{X: 25, Y: 25, Width: 50, Height: 50},
			expected: 1.0,
		},
		{
			name:     "box half inside rect region",
			region:   RectRegion(Rect{X: 0, Y: 0, Width: 100, Height: 100}),
			box:      Rect{X: 50, Y: 0, Width: 100, Height: 100},
			expected: 0.5,
		},
		{
			name:     "box outside region",
			region:   RectRegion(Rect{X: 0, Y: 0, Width: 100, Height: 100}),
			box:      Rect{X: 200, Y: 200, Width: 50, Height: 50},
			expected: 0,
		},
		{
			name:     "box covering whole region",
			region:   RectRegion(Rect{X: 25, Y: 25, Width: 50, Height: 50}),
			box:      Rect{X: 0, Y: 0, Width: 100, Height: 100},
			expected: 0.25,
		},
		{
			name: "triangular region clips box to half",
			region: PolygonRegion([]Point{
				{0, 0}, {100, 0}, {0, 100},
			}),
			box:      Rect{X: 0, Y: 0, Width: 100, Height: 100},
			expected: 0.5,
		},
		{
			name: "clockwise winding gives the same ratio",
			region: PolygonRegion([]Point{
				{0, 100}, {100, 0}, {0, 0},
			}),
			box:      Rect{X: 0, Y: 0, Width: 100, Height: 100},
			expected: 0.5,
		},
		{
			name:     "degenerate box",
			region:   RectRegion(Rect{X: 0, Y: 0, Width: 100, Height: 100}),
			box:      Rect{X: 10, Y: 10, Width: 0, Height: 50},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.region.OverlapRatio(tt.box)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("OverlapRatio() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRegionValidate(t *testing.T) {
	tests := []struct {
		name    string
		region  Region
		wantErr bool
	}{
		{
			name:   "valid rectangle",
			region: RectRegion(Rect{X: 0, Y: 0, Width: 10, Height: 10}),
		},
		{
			name:    "too few points",
			region:  PolygonRegion([]Point{{0, 0}, {10, 0}}),
			wantErr: true,
		},
		{
			name:    "collinear points have zero area",
			region:  PolygonRegion([]Point{{0, 0}, {10, 10}, {20, 20}}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.region.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegionUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPoints int
		wantErr    bool
	}{
		{
			name:       "rect form",
			input:      `{"rect":{"x":0,"y":0,"width":100,"height":50}}`,
			wantPoints: 4,
		},
		{
			name:       "polygon form",
			input:      `{"polygon":[[0,0],[100,0],[100,50],[0,50],[50,25]]}`,
			wantPoints: 5,
		},
		{
			name:    "neither form",
			input:   `{}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var region Region
			err := json.Unmarshal([]byte(tt.input), &region)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(region.Points) != tt.wantPoints {
				t.Errorf("got %d points, want %d", len(region.Points), tt.wantPoints)
			}
		})
	}
}

func TestRectCenter(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 30, Height: 40}
	center := r.Center()
	if center.X != 25 || center.Y != 40 {
		t.Errorf("Center() = %+v, want {25 40}", center)
	}
}
