package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,

	// Configured spots are mirrored here for reporting joins; the running
	// process always trusts the spots file, not this table.
	`CREATE TABLE IF NOT EXISTS parking_spots (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		region      JSONB NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	// One row per continuous occupancy. end_time stays NULL while the
	// session is open; the partial unique index enforces at most one open
	// session per spot.
	`CREATE TABLE IF NOT EXISTS parking_sessions (
		id                  UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		spot_id             TEXT NOT NULL,
		spot_name           TEXT NOT NULL,
		car_identifier      TEXT,
		start_time          TIMESTAMPTZ NOT NULL,
		last_seen           TIMESTAMPTZ NOT NULL,
		end_time            TIMESTAMPTZ,
		duration_minutes    NUMERIC(10,2),
		peak_confidence     NUMERIC(5,4),
		avg_confidence      NUMERIC(5,4),
		observations        INT NOT NULL DEFAULT 1,
		alerted_thresholds  JSONB NOT NULL DEFAULT '[]',
		snapshot_url        TEXT,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_parking_sessions_open_spot
		ON parking_sessions(spot_id) WHERE end_time IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_parking_sessions_spot_id ON parking_sessions(spot_id);`,
	`CREATE INDEX IF NOT EXISTS idx_parking_sessions_start_time ON parking_sessions(start_time);`,
	`CREATE INDEX IF NOT EXISTS idx_parking_sessions_car ON parking_sessions(car_identifier) WHERE car_identifier IS NOT NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_parking_sessions_end_time ON parking_sessions(end_time) WHERE end_time IS NOT NULL;`,

	// Alert audit trail: one row per delivered threshold crossing.
	`CREATE TABLE IF NOT EXISTS parking_alerts (
		id              UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		session_id      UUID REFERENCES parking_sessions(id) ON DELETE CASCADE,
		spot_id         TEXT NOT NULL,
		car_identifier  TEXT,
		threshold_hours NUMERIC(6,2) NOT NULL,
		elapsed_hours   NUMERIC(8,2) NOT NULL,
		message         TEXT NOT NULL,
		delivered       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_parking_alerts_session_id ON parking_alerts(session_id);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_parking_alerts_session_threshold
		ON parking_alerts(session_id, threshold_hours);`,
}

func runMigrations(database *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := database.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
