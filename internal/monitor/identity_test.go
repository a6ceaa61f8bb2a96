package monitor

import (
	"testing"
	"time"

	"parking-monitor/internal/domain/parking"
)

func TestResolveKeepsIdentityAcrossJitter(t *testing.T) {
	tr := NewIdentityTracker(3, 50)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	first := tr.Resolve("A1", det(10, 10, 80, 80, 0.9), base)
	tr.EndCycle(base)

	// Box drifts a few pixels next cycle.
	next := base.Add(5 * time.Second)
	second := tr.Resolve("A1", det(14, 12, 80, 80, 0.9), next)
	tr.EndCycle(next)

	if first != second {
		t.Errorf("identity changed across jitter: %s then %s", first, second)
	}
}

func TestResolveSurvivesDetectionGap(t *testing.T) {
	tr := NewIdentityTracker(3, 50)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	first := tr.Resolve("A1", det(10, 10, 80, 80, 0.9), base)
	tr.EndCycle(base)

	// Two cycles with no detection at the spot.
	now := base
	for i := 0; i < 2; i++ {
		now = now.Add(5 * time.Second)
		tr.EndCycle(now)
	}

	now = now.Add(5 * time.Second)
	second := tr.Resolve("A1", det(12, 10, 80, 80, 0.9), now)
	if first != second {
		t.Errorf("identity lost over a short gap: %s then %s", first, second)
	}
}

func TestResolveRetiresIdentityPastGapTolerance(t *testing.T) {
	tr := NewIdentityTracker(3, 50)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	first := tr.Resolve("A1", det(10, 10, 80, 80, 0.9), base)
	tr.EndCycle(base)

	now := base
	for i := 0; i < 4; i++ {
		now = now.Add(5 * time.Second)
		tr.EndCycle(now)
	}

	now = now.Add(5 * time.Second)
	second := tr.Resolve("A1", det(10, 10, 80, 80, 0.9), now)
	if first == second {
		t.Errorf("identity %s should have been retired after exceeding the gap tolerance", first)
	}
}

func TestResolveMintsNewIdentityOutsideDriftRadius(t *testing.T) {
	tr := NewIdentityTracker(3, 50)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	first := tr.Resolve("A1", det(10, 10, 80, 80, 0.9), base)
	tr.EndCycle(base)

	next := base.Add(5 * time.Second)
	second := tr.Resolve("A1", det(100, 100, 80, 80, 0.9), next)
	if first == second {
		t.Errorf("identity %s reused despite moving outside the drift radius", first)
	}
}

func TestResolveIdentitiesAreScopedPerSpot(t *testing.T) {
	tr := NewIdentityTracker(3, 50)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	a := tr.Resolve("A1", det(10, 10, 80, 80, 0.9), base)
	b := tr.Resolve("A2", det(10, 10, 80, 80, 0.9), base)
	if a == b {
		t.Errorf("identities at different spots share id %s", a)
	}
}

func TestAdoptPreservesPersistedIdentifier(t *testing.T) {
	tr := NewIdentityTracker(3, 50)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tr.Adopt("A1", "car-000042", parking.Point{X: 50, Y: 50}, base)

	next := base.Add(5 * time.Second)
	got := tr.Resolve("A1", det(10, 10, 80, 80, 0.9), next)
	if got != "car-000042" {
		t.Errorf("Resolve() = %s, want the adopted car-000042", got)
	}

	// Fresh identities continue past the adopted sequence number.
	minted := tr.Resolve("A2", det(10, 10, 80, 80, 0.9), next)
	if minted != "car-000043" {
		t.Errorf("minted id = %s, want car-000043", minted)
	}
}
