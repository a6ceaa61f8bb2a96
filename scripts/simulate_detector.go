// Standalone detector stub for local development. Serves the two endpoints
// the monitor polls: /detections returns randomized vehicle boxes over the
// sample spot layout, /snapshot returns a tiny placeholder JPEG.
//
// Usage:
//
//	go run simulate_detector.go -addr :9000 -occupancy 0.6
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

type detection struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
}

type payload struct {
	CapturedAt time.Time   `json:"captured_at"`
	Detections []detection `json:"detections"`
}

// Boxes roughly centered on the spots in config/spots.json.
var spotBoxes = []detection{
	{X: 50, Y: 110, Width: 100, Height: 170, Class: "car"},
	{X: 190, Y: 110, Width: 100, Height: 170, Class: "car"},
	{X: 330, Y: 110, Width: 100, Height: 170, Class: "truck"},
	{X: 510, Y: 120, Width: 110, Height: 150, Class: "car"},
}

// Minimal valid JPEG so snapshot uploads have something to store.
var placeholderJPEG = []byte{
	0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01,
	0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0xFF, 0xD9,
}

type simulator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	occupancy float64
	occupied  []bool
	churn     float64
}

func newSimulator(occupancy, churn float64) *simulator {
	s := &simulator{
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		occupancy: occupancy,
		occupied:  make([]bool, len(spotBoxes)),
		churn:     churn,
	}
	for i := range s.occupied {
		s.occupied[i] = s.rng.Float64() < occupancy
	}
	return s
}

// step flips each spot with a small probability so sessions open and close
// over time instead of every poll.
func (s *simulator) step() []detection {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []detection
	for i, box := range spotBoxes {
		if s.rng.Float64() < s.churn {
			s.occupied[i] = !s.occupied[i]
		}
		if !s.occupied[i] {
			continue
		}
		d := box
		d.X += s.rng.Float64()*8 - 4
		d.Y += s.rng.Float64()*8 - 4
		d.Confidence = 0.6 + s.rng.Float64()*0.35
		out = append(out, d)
	}
	return out
}

func main() {
	addr := flag.String("addr", ":9000", "listen address")
	occupancy := flag.Float64("occupancy", 0.5, "initial fraction of occupied spots")
	churn := flag.Float64("churn", 0.02, "per-poll probability a spot flips state")
	flag.Parse()

	sim := newSimulator(*occupancy, *churn)

	mux := http.NewServeMux()
	mux.HandleFunc("/detections", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload{
			CapturedAt: time.Now().UTC(),
			Detections: sim.step(),
		})
	})
	mux.HandleFunc("/snapshot", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write(placeholderJPEG)
	})

	log.Printf("detector simulator listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}
