package parking

import (
	"testing"
	"time"
)

func TestSessionConfidenceTracking(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	spot := Spot{ID: "A1", Name: "Spot A1"}

	session := NewSession(spot, "car-000001", start, 0.8)
	session.Extend(start.Add(5*time.Second), "car-000001", 0.6)
	session.Extend(start.Add(10*time.Second), "car-000001", 0.9)

	if session.PeakConfidence != 0.9 {
		t.Errorf("PeakConfidence = %v, want 0.9", session.PeakConfidence)
	}
	if got := session.AvgConfidence(); got < 0.766 || got > 0.767 {
		t.Errorf("AvgConfidence() = %v, want ~0.7667", got)
	}
	if session.Observations() != 3 {
		t.Errorf("Observations() = %d, want 3", session.Observations())
	}
	if !session.LastSeen.Equal(start.Add(10 * time.Second)) {
		t.Errorf("LastSeen = %v, want %v", session.LastSeen, start.Add(10*time.Second))
	}
}

func TestSessionMarkAlerted(t *testing.T) {
	session := &Session{}

	session.MarkAlerted(5)
	session.MarkAlerted(3)
	session.MarkAlerted(5) // duplicate is ignored
	session.MarkAlerted(8)

	want := []float64{3, 5, 8}
	if len(session.AlertedThresholds) != len(want) {
		t.Fatalf("AlertedThresholds = %v, want %v", session.AlertedThresholds, want)
	}
	for i, h := range want {
		if session.AlertedThresholds[i] != h {
			t.Errorf("AlertedThresholds[%d] = %v, want %v", i, session.AlertedThresholds[i], h)
		}
	}
	if !session.HasAlerted(5) {
		t.Error("HasAlerted(5) = false, want true")
	}
	if session.HasAlerted(10) {
		t.Error("HasAlerted(10) = true, want false")
	}
}

func TestSessionRehydrate(t *testing.T) {
	session := &Session{}
	session.Rehydrate(0.75, 4)

	if got := session.AvgConfidence(); got != 0.75 {
		t.Errorf("AvgConfidence() = %v, want 0.75", got)
	}
	if session.Observations() != 4 {
		t.Errorf("Observations() = %d, want 4", session.Observations())
	}

	session.Extend(time.Now(), "car-000002", 0.75)
	if got := session.AvgConfidence(); got != 0.75 {
		t.Errorf("AvgConfidence() after extend = %v, want 0.75", got)
	}
}
