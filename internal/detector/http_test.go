package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDetectFiltersNonVehicleClasses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detections" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"captured_at": "2026-03-01T08:00:00Z",
			"detections": [
				{"x": 10, "y": 10, "width": 80, "height": 80, "confidence": 0.9, "class": "car"},
				{"x": 100, "y": 10, "width": 80, "height": 80, "confidence": 0.8, "class": "truck"},
				{"x": 200, "y": 10, "width": 20, "height": 40, "confidence": 0.95, "class": "person"}
			]
		}`))
	}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, 2*time.Second)
	detections, err := d.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(detections) != 2 {
		t.Fatalf("Detect() returned %d detections, want 2 (person filtered)", len(detections))
	}
	if detections[0].Class != "car" || detections[1].Class != "truck" {
		t.Errorf("classes = %s/%s, want car/truck", detections[0].Class, detections[1].Class)
	}
	if detections[0].Box.X != 10 || detections[0].Confidence != 0.9 {
		t.Errorf("first detection = %+v", detections[0])
	}
}

func TestDetectErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			d := NewHTTPDetector(srv.URL, 2*time.Second)
			if _, err := d.Detect(context.Background()); err == nil {
				t.Error("Detect() error = nil, want transport error")
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/snapshot" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, 2*time.Second)
	data, err := d.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(data) != 4 {
		t.Errorf("Snapshot() returned %d bytes, want 4", len(data))
	}
}

func TestSnapshotEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	d := NewHTTPDetector(srv.URL, 2*time.Second)
	if _, err := d.Snapshot(context.Background()); err == nil {
		t.Error("Snapshot() error = nil for empty body, want error")
	}
}
