package monitor

import (
	"fmt"
	"time"

	"parking-monitor/internal/domain/parking"
)

// carIdentity is the tracker-owned continuity record for one vehicle at one
// spot. Retirement only removes it from the candidate pool; sessions that
// referenced it are never rewritten.
type carIdentity struct {
	id       string
	position parking.Point
	lastSeen time.Time
	misses   int
}

// IdentityTracker keeps vehicle identity stable across detection gaps and
// position jitter. Candidates are matched per spot: the nearest identity
// within the drift radius whose miss count is inside the gap tolerance wins,
// ties going to the most recently seen, then to the older identity.
type IdentityTracker struct {
	gapTolerance int
	driftRadius  float64
	seq          uint64
	bySpot       map[string][]*carIdentity
}

func NewIdentityTracker(gapTolerance int, driftRadius float64) *IdentityTracker {
	return &IdentityTracker{
		gapTolerance: gapTolerance,
		driftRadius:  driftRadius,
		bySpot:       make(map[string][]*carIdentity),
	}
}

// Resolve returns the continuing identity for a matched detection, or mints
// a new one when nothing within the drift radius qualifies.
func (t *IdentityTracker) Resolve(spotID string, det parking.Detection, now time.Time) string {
	center := det.Box.Center()

	var best *carIdentity
	var bestDist float64
	for _, cand := range t.bySpot[spotID] {
		if cand.misses > t.gapTolerance {
			continue
		}
		dist := cand.position.DistanceTo(center)
		if dist > t.driftRadius {
			continue
		}
		if best == nil || closerCandidate(cand, dist, best, bestDist) {
			best = cand
			bestDist = dist
		}
	}

	if best == nil {
		best = t.mint(spotID)
	}
	best.position = center
	best.lastSeen = now
	best.misses = 0
	return best.id
}

func closerCandidate(cand *carIdentity, dist float64, cur *carIdentity, curDist float64) bool {
	if dist != curDist {
		return dist < curDist
	}
	if !cand.lastSeen.Equal(cur.lastSeen) {
		return cand.lastSeen.After(cur.lastSeen)
	}
	return cand.id < cur.id
}

func (t *IdentityTracker) mint(spotID string) *carIdentity {
	t.seq++
	ident := &carIdentity{id: fmt.Sprintf("car-%06d", t.seq)}
	t.bySpot[spotID] = append(t.bySpot[spotID], ident)
	return ident
}

// EndCycle ages every identity that was not resolved this cycle and retires
// the ones past the gap tolerance.
func (t *IdentityTracker) EndCycle(now time.Time) {
	for spotID, idents := range t.bySpot {
		kept := idents[:0]
		for _, ident := range idents {
			if ident.lastSeen.Equal(now) {
				kept = append(kept, ident)
				continue
			}
			ident.misses++
			if ident.misses <= t.gapTolerance {
				kept = append(kept, ident)
			}
		}
		if len(kept) == 0 {
			delete(t.bySpot, spotID)
		} else {
			t.bySpot[spotID] = kept
		}
	}
}

// Adopt seeds an identity for a rehydrated open session so the vehicle keeps
// its persisted identifier after a restart.
func (t *IdentityTracker) Adopt(spotID, carID string, position parking.Point, lastSeen time.Time) {
	var n uint64
	if _, err := fmt.Sscanf(carID, "car-%d", &n); err == nil && n > t.seq {
		t.seq = n
	}
	t.bySpot[spotID] = append(t.bySpot[spotID], &carIdentity{
		id:       carID,
		position: position,
		lastSeen: lastSeen,
	})
}
