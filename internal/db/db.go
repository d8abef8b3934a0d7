// Package db persists received telemetry: sessions, completed laps and final
// classifications land in a local SQLite database so they survive the
// process and can be queried or charted later.
package db

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tailscale/tailsql/server/tailsql"
	_ "modernc.org/sqlite"
	"tailscale.com/tsweb"

	"github.com/gridline-data/apex.report/internal/monitoring"
	"github.com/gridline-data/apex.report/internal/telemetry"
)

type DB struct {
	*sql.DB
	path string
}

// NewDB opens (creating if necessary) the recording database at path and
// brings the schema up to date.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db := &DB{DB: sqlDB, path: path}
	if err := db.MigrateUp(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate recording database: %w", err)
	}
	return db, nil
}

// sessionKey renders a session uid for storage. SQLite integers are signed
// 64-bit, so the uid is kept as text to avoid overflow surprises.
func sessionKey(uid uint64) string {
	return fmt.Sprintf("%d", uid)
}

// EnsureSession records a session the first time it is seen. Repeated calls
// for the same uid are no-ops; each new session gets a fresh recording id.
func (db *DB) EnsureSession(uid uint64, packetFormat uint16) error {
	_, err := db.Exec(
		`INSERT OR IGNORE INTO sessions (session_uid, recording_id, packet_format) VALUES (?, ?, ?)`,
		sessionKey(uid), uuid.New().String(), packetFormat,
	)
	if err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}
	return nil
}

// RecordLap stores one completed lap for a car. Re-recording the same lap
// (the sim repeats the last lap time on every LapData packet) overwrites in
// place rather than duplicating.
func (db *DB) RecordLap(uid uint64, carIndex int, lapNumber int, lapTimeMS uint32, sector1MS, sector2MS uint16) error {
	if lapTimeMS == 0 {
		return nil // no completed lap yet
	}
	_, err := db.Exec(
		`INSERT OR REPLACE INTO laps (session_uid, car_index, lap_number, lap_time_ms, sector1_ms, sector2_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionKey(uid), carIndex, lapNumber, lapTimeMS, sector1MS, sector2MS,
	)
	if err != nil {
		return fmt.Errorf("failed to record lap: %w", err)
	}
	return nil
}

// RecordClassification stores one car's confirmed end-of-session result.
func (db *DB) RecordClassification(uid uint64, carIndex int, c telemetry.FinalClassificationData) error {
	_, err := db.Exec(
		`INSERT OR REPLACE INTO classifications
		 (session_uid, car_index, position, grid_position, num_laps, points, result_status, best_lap_time_ms, total_race_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionKey(uid), carIndex, c.Position, c.GridPosition, c.NumLaps, c.Points,
		c.ResultStatus, c.BestLapTimeInMS, c.TotalRaceTime,
	)
	if err != nil {
		return fmt.Errorf("failed to record classification: %w", err)
	}
	return nil
}

// LapRow is one recorded lap as returned by queries.
type LapRow struct {
	SessionUID string    `json:"session_uid"`
	CarIndex   int       `json:"car_index"`
	LapNumber  int       `json:"lap_number"`
	LapTimeMS  uint32    `json:"lap_time_ms"`
	Sector1MS  uint16    `json:"sector1_ms"`
	Sector2MS  uint16    `json:"sector2_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// RecentLaps returns the most recently recorded laps, newest first.
func (db *DB) RecentLaps(limit int) ([]LapRow, error) {
	rows, err := db.Query(
		`SELECT session_uid, car_index, lap_number, lap_time_ms, sector1_ms, sector2_ms, recorded_at
		 FROM laps ORDER BY recorded_at DESC, lap_number DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var laps []LapRow
	for rows.Next() {
		var lap LapRow
		if err := rows.Scan(&lap.SessionUID, &lap.CarIndex, &lap.LapNumber,
			&lap.LapTimeMS, &lap.Sector1MS, &lap.Sector2MS, &lap.RecordedAt); err != nil {
			return nil, err
		}
		laps = append(laps, lap)
	}
	return laps, rows.Err()
}

// SessionLaps returns every recorded lap for one car in one session, in lap
// order. Used by the lap-plot tool.
func (db *DB) SessionLaps(uid string, carIndex int) ([]LapRow, error) {
	rows, err := db.Query(
		`SELECT session_uid, car_index, lap_number, lap_time_ms, sector1_ms, sector2_ms, recorded_at
		 FROM laps WHERE session_uid = ? AND car_index = ? ORDER BY lap_number`, uid, carIndex)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var laps []LapRow
	for rows.Next() {
		var lap LapRow
		if err := rows.Scan(&lap.SessionUID, &lap.CarIndex, &lap.LapNumber,
			&lap.LapTimeMS, &lap.Sector1MS, &lap.Sector2MS, &lap.RecordedAt); err != nil {
			return nil, err
		}
		laps = append(laps, lap)
	}
	return laps, rows.Err()
}

// AttachAdminRoutes mounts debugging endpoints under /debug/. These are only
// reachable over localhost/Tailscale, never publicly.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		monitoring.Logf("failed to create tailsql server: %v", err)
		return
	}
	tsql.SetDB("sqlite://"+db.path, db.DB, &tailsql.DBOptions{
		Label: "Telemetry recordings",
	})

	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}
