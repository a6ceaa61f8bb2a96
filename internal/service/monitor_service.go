package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"parking-monitor/internal/domain/parking"
	"parking-monitor/internal/monitor"
	"parking-monitor/internal/notify"
	"parking-monitor/internal/repository"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// MonitorService sits between the HTTP layer and the tracking core: it
// serves snapshot/statistics queries, drives start/stop, and builds
// reports.
type MonitorService struct {
	monitor         *monitor.Monitor
	repo            *repository.SessionRepository
	notifier        *notify.Notifier
	spots           []parking.Spot
	statsWindowDays int
	log             zerolog.Logger
}

func NewMonitorService(mon *monitor.Monitor, repo *repository.SessionRepository, notifier *notify.Notifier, spots []parking.Spot, statsWindowDays int, log zerolog.Logger) *MonitorService {
	return &MonitorService{
		monitor:         mon,
		repo:            repo,
		notifier:        notifier,
		spots:           spots,
		statsWindowDays: statsWindowDays,
		log:             log,
	}
}

type StatusInfo struct {
	Running           bool                      `json:"running"`
	NotifierConnected bool                      `json:"notifier_connected"`
	ActiveSessions    int                       `json:"active_sessions"`
	TotalSpots        int                       `json:"total_spots"`
	Snapshot          parking.OccupancySnapshot `json:"snapshot"`
	Stats             parking.StatsSummary      `json:"stats"`
}

func (s *MonitorService) Status(ctx context.Context) (StatusInfo, error) {
	snapshot := s.monitor.Snapshot()
	stats, err := s.Stats(ctx, s.statsWindowDays)
	if err != nil {
		// Stats degrade to the live view when the window query fails.
		s.log.Error().Err(err).Msg("failed to load closed-session window for stats")
		stats = s.monitor.Stats(nil)
	}
	return StatusInfo{
		Running:           snapshot.Running,
		NotifierConnected: s.notifier.Enabled(),
		ActiveSessions:    snapshot.Occupied,
		TotalSpots:        snapshot.TotalSpots,
		Snapshot:          snapshot,
		Stats:             stats,
	}, nil
}

func (s *MonitorService) ActiveSessions() []parking.SessionSummary {
	return s.monitor.ActiveSessions()
}

func (s *MonitorService) Spots() []parking.Spot {
	return s.spots
}

func (s *MonitorService) Stats(ctx context.Context, days int) (parking.StatsSummary, error) {
	if days <= 0 {
		days = s.statsWindowDays
	}
	since := time.Now().AddDate(0, 0, -days)
	closed, err := s.repo.FindClosedSessions(ctx, since)
	if err != nil {
		return parking.StatsSummary{}, fmt.Errorf("load closed sessions: %w", err)
	}
	return s.monitor.Stats(closed), nil
}

func (s *MonitorService) StartMonitoring() bool {
	started := s.monitor.Start()
	if started && s.notifier.Enabled() {
		if err := s.notifier.Send(notify.StatusMessage("System Online", "Parking monitor started successfully")); err != nil {
			s.log.Warn().Err(err).Msg("failed to send startup notification")
		}
	}
	return started
}

func (s *MonitorService) StopMonitoring() bool {
	stopped := s.monitor.Stop()
	if stopped && s.notifier.Enabled() {
		if err := s.notifier.Send(notify.StatusMessage("System Offline", "Parking monitor stopped")); err != nil {
			s.log.Warn().Err(err).Msg("failed to send shutdown notification")
		}
	}
	return stopped
}

type SessionInfo struct {
	ID                string     `json:"id"`
	SpotID            string     `json:"spot_id"`
	SpotName          string     `json:"spot_name"`
	CarIdentifier     *string    `json:"car_identifier,omitempty"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	DurationMinutes   *float64   `json:"duration_minutes,omitempty"`
	PeakConfidence    *float64   `json:"peak_confidence,omitempty"`
	AvgConfidence     *float64   `json:"avg_confidence,omitempty"`
	AlertedThresholds []float64  `json:"alerted_thresholds,omitempty"`
	SnapshotURL       *string    `json:"snapshot_url,omitempty"`
}

func (s *MonitorService) SessionHistory(ctx context.Context, spotID *string, from, to *string, limit, offset int) ([]SessionInfo, error) {
	fromTime, toTime, err := parseTimeRange(from, to)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.repo.FindSessions(ctx, spotID, fromTime, toTime, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}

	result := make([]SessionInfo, 0, len(rows))
	for _, row := range rows {
		result = append(result, sessionRowToInfo(row))
	}
	return result, nil
}

// ExportSessions builds an XLSX report over the same filters as the history
// endpoint, capped at a larger page size.
func (s *MonitorService) ExportSessions(ctx context.Context, spotID *string, from, to *string) (*excelize.File, error) {
	fromTime, toTime, err := parseTimeRange(from, to)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.FindSessions(ctx, spotID, fromTime, toTime, 10000, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Sessions"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Session ID", "Spot", "Spot Name", "Vehicle", "Start Time", "End Time", "Duration (min)", "Peak Confidence", "Avg Confidence", "Snapshot URL"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for i, row := range rows {
		values := []interface{}{
			row.ID.String(),
			row.SpotID,
			row.SpotName,
			derefString(row.CarIdentifier),
			row.StartTime.Format(time.RFC3339),
			formatTimePtr(row.EndTime),
			derefFloat(row.DurationMinutes),
			derefFloat(row.PeakConfidence),
			derefFloat(row.AvgConfidence),
			derefString(row.SnapshotURL),
		}
		for j, value := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	return f, nil
}

func (s *MonitorService) CleanupOldSessions(ctx context.Context, days int) (int64, error) {
	deleted, err := s.repo.DeleteOldSessions(ctx, days)
	if err != nil {
		s.log.Error().Err(err).Int("days", days).Msg("failed to cleanup old sessions")
		return 0, err
	}
	if deleted > 0 {
		s.log.Info().Int64("deleted_count", deleted).Int("days", days).Msg("cleaned up old sessions")
	}
	return deleted, nil
}

func parseTimeRange(from, to *string) (*time.Time, *time.Time, error) {
	var fromTime, toTime *time.Time
	if from != nil && *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid from time format", ErrInvalidInput)
		}
		fromTime = &t
	}
	if to != nil && *to != "" {
		t, err := time.Parse(time.RFC3339, *to)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: invalid to time format", ErrInvalidInput)
		}
		toTime = &t
	}
	return fromTime, toTime, nil
}

func sessionRowToInfo(row repository.SessionRow) SessionInfo {
	info := SessionInfo{
		ID:              row.ID.String(),
		SpotID:          row.SpotID,
		SpotName:        row.SpotName,
		CarIdentifier:   row.CarIdentifier,
		StartTime:       row.StartTime,
		EndTime:         row.EndTime,
		DurationMinutes: row.DurationMinutes,
		PeakConfidence:  row.PeakConfidence,
		AvgConfidence:   row.AvgConfidence,
		SnapshotURL:     row.SnapshotURL,
	}
	if len(row.AlertedThresholds) > 0 {
		var thresholds []float64
		if err := json.Unmarshal(row.AlertedThresholds, &thresholds); err == nil {
			info.AlertedThresholds = thresholds
		}
	}
	return info
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
