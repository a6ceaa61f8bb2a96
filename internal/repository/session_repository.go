package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"parking-monitor/internal/domain/parking"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (SpotRow) TableName() string {
	return "parking_spots"
}

func (SessionRow) TableName() string {
	return "parking_sessions"
}

func (AlertRow) TableName() string {
	return "parking_alerts"
}

type SpotRow struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Region    datatypes.JSON
	IsActive  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SessionRow struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	SpotID            string    `gorm:"not null"`
	SpotName          string    `gorm:"not null"`
	CarIdentifier     *string
	StartTime         time.Time `gorm:"not null"`
	LastSeen          time.Time `gorm:"not null"`
	EndTime           *time.Time
	DurationMinutes   *float64
	PeakConfidence    *float64
	AvgConfidence     *float64
	Observations      int            `gorm:"not null;default:1"`
	AlertedThresholds datatypes.JSON `gorm:"type:jsonb"`
	SnapshotURL       *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type AlertRow struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID      uuid.UUID `gorm:"type:uuid"`
	SpotID         string    `gorm:"not null"`
	CarIdentifier  *string
	ThresholdHours float64 `gorm:"not null"`
	ElapsedHours   float64 `gorm:"not null"`
	Message        string  `gorm:"not null"`
	Delivered      bool    `gorm:"not null;default:false"`
	CreatedAt      time.Time
}

// SyncSpots mirrors the configured spots into the database for reporting
// joins. Spots dropped from the configuration are deactivated, never
// deleted.
func (r *SessionRepository) SyncSpots(ctx context.Context, spots []parking.Spot) error {
	active := make([]string, 0, len(spots))
	for _, spot := range spots {
		region, err := json.Marshal(spot.Region)
		if err != nil {
			return fmt.Errorf("marshal region for spot %s: %w", spot.ID, err)
		}
		row := SpotRow{
			ID:        spot.ID,
			Name:      spot.Name,
			Region:    datatypes.JSON(region),
			IsActive:  true,
			UpdatedAt: time.Now(),
		}
		err = r.db.WithContext(ctx).
			Where("id = ?", spot.ID).
			Assign(map[string]interface{}{
				"name":      spot.Name,
				"region":    datatypes.JSON(region),
				"is_active": true,
			}).
			FirstOrCreate(&row).Error
		if err != nil {
			return fmt.Errorf("sync spot %s: %w", spot.ID, err)
		}
		active = append(active, spot.ID)
	}
	return r.db.WithContext(ctx).
		Model(&SpotRow{}).
		Where("id NOT IN ?", active).
		Update("is_active", false).Error
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *parking.Session) error {
	row, err := sessionToRow(session)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("create parking session: %w", err)
	}
	return nil
}

func (r *SessionRepository) CloseSession(ctx context.Context, session *parking.Session) error {
	if session.EndTime == nil {
		return fmt.Errorf("close parking session %s: end time is not set", session.ID)
	}
	duration := session.EndTime.Sub(session.StartTime).Minutes()
	thresholds, err := json.Marshal(session.AlertedThresholds)
	if err != nil {
		return fmt.Errorf("marshal alerted thresholds: %w", err)
	}

	updates := map[string]interface{}{
		"end_time":           *session.EndTime,
		"last_seen":          session.LastSeen,
		"duration_minutes":   duration,
		"peak_confidence":    session.PeakConfidence,
		"avg_confidence":     session.AvgConfidence(),
		"observations":       session.Observations(),
		"alerted_thresholds": datatypes.JSON(thresholds),
		"updated_at":         time.Now(),
	}
	if session.CarID != "" {
		updates["car_identifier"] = session.CarID
	}

	result := r.db.WithContext(ctx).
		Model(&SessionRow{}).
		Where("id = ?", session.ID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("close parking session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("close parking session %s: %w", session.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// MarkAlerted persists a session's alerted-threshold set so alert-once
// survives restarts.
func (r *SessionRepository) MarkAlerted(ctx context.Context, session *parking.Session) error {
	thresholds, err := json.Marshal(session.AlertedThresholds)
	if err != nil {
		return fmt.Errorf("marshal alerted thresholds: %w", err)
	}
	return r.db.WithContext(ctx).
		Model(&SessionRow{}).
		Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"alerted_thresholds": datatypes.JSON(thresholds),
			"updated_at":         time.Now(),
		}).Error
}

func (r *SessionRepository) CreateAlert(ctx context.Context, event parking.AlertEvent, message string, delivered bool) error {
	row := AlertRow{
		ID:             uuid.New(),
		SessionID:      event.SessionID,
		SpotID:         event.SpotID,
		ThresholdHours: event.ThresholdHours,
		ElapsedHours:   event.ElapsedHours,
		Message:        message,
		Delivered:      delivered,
		CreatedAt:      time.Now(),
	}
	if event.CarID != "" {
		row.CarIdentifier = &event.CarID
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("create parking alert: %w", err)
	}
	return nil
}

// FindOpenSessions loads every session without an end time, for rehydration
// at startup.
func (r *SessionRepository) FindOpenSessions(ctx context.Context) ([]*parking.Session, error) {
	var rows []SessionRow
	err := r.db.WithContext(ctx).
		Where("end_time IS NULL").
		Order("start_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find open sessions: %w", err)
	}

	sessions := make([]*parking.Session, 0, len(rows))
	for _, row := range rows {
		session, err := rowToSession(row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// FindClosedSessions returns sessions that ended after the cutoff, newest
// first. Feeds the stats window.
func (r *SessionRepository) FindClosedSessions(ctx context.Context, since time.Time) ([]parking.Session, error) {
	var rows []SessionRow
	err := r.db.WithContext(ctx).
		Where("end_time IS NOT NULL AND end_time >= ?", since).
		Order("end_time DESC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find closed sessions: %w", err)
	}

	sessions := make([]parking.Session, 0, len(rows))
	for _, row := range rows {
		session, err := rowToSession(row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

func (r *SessionRepository) FindSessions(ctx context.Context, spotID *string, from, to *time.Time, limit, offset int) ([]SessionRow, error) {
	query := r.db.WithContext(ctx).Model(&SessionRow{})

	if spotID != nil {
		query = query.Where("spot_id = ?", *spotID)
	}
	if from != nil {
		query = query.Where("start_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("start_time <= ?", *to)
	}

	query = query.Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []SessionRow
	err := query.Find(&rows).Error
	return rows, err
}

// DeleteOldSessions removes closed sessions older than the retention window.
// Open sessions are never purged.
func (r *SessionRepository) DeleteOldSessions(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	result := r.db.WithContext(ctx).
		Where("end_time IS NOT NULL AND end_time < ?", cutoff).
		Delete(&SessionRow{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func sessionToRow(session *parking.Session) (*SessionRow, error) {
	thresholds, err := json.Marshal(session.AlertedThresholds)
	if err != nil {
		return nil, fmt.Errorf("marshal alerted thresholds: %w", err)
	}
	if session.AlertedThresholds == nil {
		thresholds = []byte("[]")
	}

	peak := session.PeakConfidence
	avg := session.AvgConfidence()
	row := &SessionRow{
		ID:                session.ID,
		SpotID:            session.SpotID,
		SpotName:          session.SpotName,
		StartTime:         session.StartTime,
		LastSeen:          session.LastSeen,
		DurationMinutes:   nil,
		PeakConfidence:    &peak,
		AvgConfidence:     &avg,
		Observations:      session.Observations(),
		AlertedThresholds: datatypes.JSON(thresholds),
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if session.CarID != "" {
		row.CarIdentifier = &session.CarID
	}
	if session.EndTime != nil {
		row.EndTime = session.EndTime
		duration := session.EndTime.Sub(session.StartTime).Minutes()
		row.DurationMinutes = &duration
	}
	if session.SnapshotURL != "" {
		row.SnapshotURL = &session.SnapshotURL
	}
	return row, nil
}

func rowToSession(row SessionRow) (*parking.Session, error) {
	session := &parking.Session{
		ID:        row.ID,
		SpotID:    row.SpotID,
		SpotName:  row.SpotName,
		StartTime: row.StartTime,
		LastSeen:  row.LastSeen,
		EndTime:   row.EndTime,
	}
	if row.CarIdentifier != nil {
		session.CarID = *row.CarIdentifier
	}
	if row.PeakConfidence != nil {
		session.PeakConfidence = *row.PeakConfidence
	}
	if row.SnapshotURL != nil {
		session.SnapshotURL = *row.SnapshotURL
	}
	if len(row.AlertedThresholds) > 0 {
		if err := json.Unmarshal(row.AlertedThresholds, &session.AlertedThresholds); err != nil {
			return nil, fmt.Errorf("unmarshal alerted thresholds for session %s: %w", row.ID, err)
		}
	}
	avg := 0.0
	if row.AvgConfidence != nil {
		avg = *row.AvgConfidence
	}
	session.Rehydrate(avg, row.Observations)
	return session, nil
}
