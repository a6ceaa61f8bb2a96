package parking

import (
	"time"

	"github.com/google/uuid"
)

type SpotStatus string

const (
	StatusVacant   SpotStatus = "VACANT"
	StatusOccupied SpotStatus = "OCCUPIED"
)

// Spot is immutable configuration: loaded once at startup, never mutated.
type Spot struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region Region `json:"region"`
}

// Detection is one cycle's raw observation from the detector collaborator.
type Detection struct {
	Box        Rect      `json:"box"`
	Confidence float64   `json:"confidence"`
	Class      string    `json:"class"`
	CapturedAt time.Time `json:"captured_at"`
}

// Session is one continuous occupancy of one spot by one tracked vehicle.
// EndTime is nil while the session is open.
type Session struct {
	ID             uuid.UUID
	SpotID         string
	SpotName       string
	CarID          string
	StartTime      time.Time
	LastSeen       time.Time
	EndTime        *time.Time
	PeakConfidence float64
	confidenceSum  float64
	observations   int
	// Threshold hours already alerted, kept sorted ascending. Survives
	// restarts via persistence so a threshold never fires twice.
	AlertedThresholds []float64
	SnapshotURL       string
}

func NewSession(spot Spot, carID string, start time.Time, confidence float64) *Session {
	return &Session{
		ID:             uuid.New(),
		SpotID:         spot.ID,
		SpotName:       spot.Name,
		CarID:          carID,
		StartTime:      start,
		LastSeen:       start,
		PeakConfidence: confidence,
		confidenceSum:  confidence,
		observations:   1,
	}
}

// Extend records another occupied observation for an open session.
func (s *Session) Extend(seen time.Time, carID string, confidence float64) {
	s.LastSeen = seen
	s.CarID = carID
	s.confidenceSum += confidence
	s.observations++
	if confidence > s.PeakConfidence {
		s.PeakConfidence = confidence
	}
}

func (s *Session) AvgConfidence() float64 {
	if s.observations == 0 {
		return 0
	}
	return s.confidenceSum / float64(s.observations)
}

func (s *Session) HasAlerted(thresholdHours float64) bool {
	for _, h := range s.AlertedThresholds {
		if h == thresholdHours {
			return true
		}
	}
	return false
}

func (s *Session) MarkAlerted(thresholdHours float64) {
	if s.HasAlerted(thresholdHours) {
		return
	}
	i := 0
	for i < len(s.AlertedThresholds) && s.AlertedThresholds[i] < thresholdHours {
		i++
	}
	s.AlertedThresholds = append(s.AlertedThresholds, 0)
	copy(s.AlertedThresholds[i+1:], s.AlertedThresholds[i:])
	s.AlertedThresholds[i] = thresholdHours
}

func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}

// Rehydrate rebuilds the in-memory confidence accumulator for a session
// loaded back from storage.
func (s *Session) Rehydrate(avgConfidence float64, observations int) {
	if observations < 1 {
		observations = 1
	}
	s.observations = observations
	s.confidenceSum = avgConfidence * float64(observations)
}

func (s *Session) Observations() int {
	return s.observations
}

// AlertEvent is emitted exactly once per (session, threshold) crossing.
type AlertEvent struct {
	SessionID      uuid.UUID `json:"session_id"`
	SpotID         string    `json:"spot_id"`
	SpotName       string    `json:"spot_name"`
	CarID          string    `json:"car_id"`
	StartTime      time.Time `json:"start_time"`
	ElapsedHours   float64   `json:"elapsed_hours"`
	ThresholdHours float64   `json:"threshold_hours"`
	Confidence     float64   `json:"confidence"`
}

// SpotState is the per-spot slice of an occupancy snapshot.
type SpotState struct {
	SpotID   string          `json:"spot_id"`
	SpotName string          `json:"spot_name"`
	Status   SpotStatus      `json:"status"`
	Session  *SessionSummary `json:"session,omitempty"`
}

type SessionSummary struct {
	ID            uuid.UUID `json:"id"`
	SpotID        string    `json:"spot_id"`
	SpotName      string    `json:"spot_name"`
	CarID         string    `json:"car_id"`
	StartTime     time.Time `json:"start_time"`
	DurationHours float64   `json:"duration_hours"`
	Confidence    float64   `json:"confidence"`
	SnapshotURL   string    `json:"snapshot_url,omitempty"`
}

// OccupancySnapshot is a consistent point-in-time view for the web layer.
type OccupancySnapshot struct {
	Running    bool        `json:"running"`
	TakenAt    time.Time   `json:"taken_at"`
	TotalSpots int         `json:"total_spots"`
	Occupied   int         `json:"occupied"`
	Spots      []SpotState `json:"spots"`
}

type StatsSummary struct {
	TotalSpots         int     `json:"total_spots"`
	OccupiedSpots      int     `json:"occupied_spots"`
	OccupancyRate      float64 `json:"occupancy_rate"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
	TotalSessions      int     `json:"total_sessions"`
}
