package monitor

import (
	"testing"
	"time"

	"parking-monitor/internal/domain/parking"
)

func closedSession(start time.Time, minutes float64) parking.Session {
	end := start.Add(time.Duration(minutes * float64(time.Minute)))
	return parking.Session{StartTime: start, EndTime: &end}
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		total  int
		open   []parking.SessionSummary
		closed []parking.Session
		want   parking.StatsSummary
	}{
		{
			name:  "half occupied",
			total: 4,
			open:  make([]parking.SessionSummary, 2),
			want: parking.StatsSummary{
				TotalSpots:    4,
				OccupiedSpots: 2,
				OccupancyRate: 50.0,
				TotalSessions: 2,
			},
		},
		{
			name:  "rate rounds to two decimals",
			total: 3,
			open:  make([]parking.SessionSummary, 1),
			want: parking.StatsSummary{
				TotalSpots:    3,
				OccupiedSpots: 1,
				OccupancyRate: 33.33,
				TotalSessions: 1,
			},
		},
		{
			name:  "average duration over closed sessions",
			total: 4,
			closed: []parking.Session{
				closedSession(base, 30),
				closedSession(base, 90),
			},
			want: parking.StatsSummary{
				TotalSpots:         4,
				AvgDurationMinutes: 60.0,
				TotalSessions:      2,
			},
		},
		{
			name: "no spots configured",
			want: parking.StatsSummary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(tt.total, tt.open, tt.closed)
			if got != tt.want {
				t.Errorf("Summarize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
