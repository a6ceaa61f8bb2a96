package service

import (
	"context"

	"github.com/rs/zerolog"

	"parking-monitor/internal/domain/parking"
	"parking-monitor/internal/repository"
	"parking-monitor/internal/storage"
)

// SnapshotSource provides the current camera frame as JPEG. Implemented by
// the detector client; nil when snapshots are disabled.
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]byte, error)
}

// SessionRecorder is the persistence collaborator behind the tracking loop.
// It writes session rows and, when storage is configured, attaches a camera
// snapshot to each freshly opened session. All failures are absorbed here:
// the in-memory occupancy state stays authoritative.
type SessionRecorder struct {
	repo      *repository.SessionRepository
	snapshots SnapshotSource
	r2        *storage.R2Client
	log       zerolog.Logger
}

func NewSessionRecorder(repo *repository.SessionRepository, snapshots SnapshotSource, r2 *storage.R2Client, log zerolog.Logger) *SessionRecorder {
	return &SessionRecorder{
		repo:      repo,
		snapshots: snapshots,
		r2:        r2,
		log:       log,
	}
}

func (r *SessionRecorder) CreateSession(ctx context.Context, session *parking.Session) error {
	if r.r2 != nil && r.snapshots != nil {
		r.attachSnapshot(ctx, session)
	}
	return r.repo.CreateSession(ctx, session)
}

func (r *SessionRecorder) CloseSession(ctx context.Context, session *parking.Session) error {
	return r.repo.CloseSession(ctx, session)
}

func (r *SessionRecorder) MarkAlerted(ctx context.Context, session *parking.Session) error {
	return r.repo.MarkAlerted(ctx, session)
}

func (r *SessionRecorder) attachSnapshot(ctx context.Context, session *parking.Session) {
	image, err := r.snapshots.Snapshot(ctx)
	if err != nil {
		r.log.Warn().Err(err).
			Str("session_id", session.ID.String()).
			Msg("failed to capture session snapshot")
		return
	}
	url, err := r.r2.UploadSnapshot(ctx, session.ID.String(), image, session.StartTime)
	if err != nil {
		r.log.Warn().Err(err).
			Str("session_id", session.ID.String()).
			Msg("failed to upload session snapshot")
		return
	}
	session.SnapshotURL = url
}
