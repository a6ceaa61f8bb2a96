package monitor

import (
	"parking-monitor/internal/domain/parking"
)

// SpotMatcher assigns each detection of a cycle to at most one spot.
type SpotMatcher struct {
	spots         []parking.Spot
	minOverlap    float64
	minConfidence float64
}

func NewSpotMatcher(spots []parking.Spot, minOverlap, minConfidence float64) *SpotMatcher {
	return &SpotMatcher{
		spots:         spots,
		minOverlap:    minOverlap,
		minConfidence: minConfidence,
	}
}

// Match maps spot id to the best qualifying detection of this cycle. Spots
// absent from the result had no qualifying observation, which is distinct
// from an observed-vacant spot as far as the session debounce is concerned.
//
// Detections are consumed in descending confidence order; ties go to the
// detection with larger overlap, then smaller box area. A consumed detection
// is removed from consideration for every other spot.
func (m *SpotMatcher) Match(detections []parking.Detection) map[string]parking.Detection {
	matched := make(map[string]parking.Detection, len(m.spots))
	consumed := make([]bool, len(detections))
	assigned := make(map[string]bool, len(m.spots))

	for len(matched) < len(m.spots) {
		bestDet := -1
		bestSpot := -1
		bestOverlap := 0.0
		for i, det := range detections {
			if consumed[i] || det.Confidence < m.minConfidence {
				continue
			}
			spotIdx, overlap := m.bestSpotFor(det, assigned)
			if spotIdx < 0 {
				continue
			}
			if bestDet < 0 || betterCandidate(det, overlap, detections[bestDet], bestOverlap) {
				bestDet = i
				bestSpot = spotIdx
				bestOverlap = overlap
			}
		}
		if bestDet < 0 {
			break
		}
		consumed[bestDet] = true
		spot := m.spots[bestSpot]
		assigned[spot.ID] = true
		matched[spot.ID] = detections[bestDet]
	}

	return matched
}

// bestSpotFor returns the unassigned spot with the largest overlap meeting
// the containment threshold, or -1. Equal overlaps keep configuration order.
func (m *SpotMatcher) bestSpotFor(det parking.Detection, assigned map[string]bool) (int, float64) {
	bestIdx := -1
	bestOverlap := 0.0
	for i, spot := range m.spots {
		if assigned[spot.ID] {
			continue
		}
		overlap := spot.Region.OverlapRatio(det.Box)
		if overlap < m.minOverlap {
			continue
		}
		if overlap > bestOverlap {
			bestIdx = i
			bestOverlap = overlap
		}
	}
	return bestIdx, bestOverlap
}

func betterCandidate(det parking.Detection, overlap float64, cur parking.Detection, curOverlap float64) bool {
	if det.Confidence != cur.Confidence {
		return det.Confidence > cur.Confidence
	}
	if overlap != curOverlap {
		return overlap > curOverlap
	}
	return det.Box.Area() < cur.Box.Area()
}
