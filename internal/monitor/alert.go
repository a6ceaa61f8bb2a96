package monitor

import (
	"sort"
	"time"

	"parking-monitor/internal/domain/parking"
)

// AlertScheduler emits one AlertEvent per (session, threshold) crossing.
// Thresholds a session has already alerted are recorded on the session
// itself, so the guarantee holds across restarts once sessions are
// rehydrated with that set intact.
type AlertScheduler struct {
	thresholdsHours []float64
}

func NewAlertScheduler(thresholdsHours []float64) *AlertScheduler {
	sorted := make([]float64, 0, len(thresholdsHours))
	for _, h := range thresholdsHours {
		if h > 0 {
			sorted = append(sorted, h)
		}
	}
	sort.Float64s(sorted)
	return &AlertScheduler{thresholdsHours: sorted}
}

// Check compares an open session's elapsed duration against every
// configured threshold. When the duration jumped past several thresholds at
// once, each fires its own event, in ascending threshold order.
func (a *AlertScheduler) Check(session *parking.Session, now time.Time) []parking.AlertEvent {
	elapsed := session.Elapsed(now).Hours()

	var events []parking.AlertEvent
	for _, threshold := range a.thresholdsHours {
		if elapsed < threshold || session.HasAlerted(threshold) {
			continue
		}
		session.MarkAlerted(threshold)
		events = append(events, parking.AlertEvent{
			SessionID:      session.ID,
			SpotID:         session.SpotID,
			SpotName:       session.SpotName,
			CarID:          session.CarID,
			StartTime:      session.StartTime,
			ElapsedHours:   elapsed,
			ThresholdHours: threshold,
			Confidence:     session.AvgConfidence(),
		})
	}
	return events
}
