package monitor

import (
	"math"

	"parking-monitor/internal/domain/parking"
)

// Summarize derives occupancy and duration statistics from the current open
// sessions and a window of recently closed ones. Pure function: safe to call
// from any goroutine against copied inputs.
func Summarize(totalSpots int, open []parking.SessionSummary, closed []parking.Session) parking.StatsSummary {
	summary := parking.StatsSummary{
		TotalSpots:    totalSpots,
		OccupiedSpots: len(open),
		TotalSessions: len(open) + len(closed),
	}

	if totalSpots > 0 {
		summary.OccupancyRate = round2(float64(len(open)) / float64(totalSpots) * 100)
	}

	if len(closed) > 0 {
		var total float64
		for _, s := range closed {
			if s.EndTime == nil {
				continue
			}
			total += s.EndTime.Sub(s.StartTime).Minutes()
		}
		summary.AvgDurationMinutes = round2(total / float64(len(closed)))
	}

	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
