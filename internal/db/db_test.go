package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridline-data/apex.report/internal/telemetry"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestNewDB_Migrates(t *testing.T) {
	database := newTestDB(t)

	version, dirty, err := database.MigrateVersion()
	require.NoError(t, err)
	require.False(t, dirty)
	require.Greater(t, version, uint(0))

	// schema is in place
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM laps`).Scan(&n))
	require.Equal(t, 0, n)
}

func TestEnsureSession_Idempotent(t *testing.T) {
	database := newTestDB(t)

	const uid = uint64(0xDEADBEEF12345678)
	require.NoError(t, database.EnsureSession(uid, 2023))
	require.NoError(t, database.EnsureSession(uid, 2023))

	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n))
	require.Equal(t, 1, n)

	// uid above 2^63 must round-trip through the text key
	var key string
	require.NoError(t, database.QueryRow(`SELECT session_uid FROM sessions`).Scan(&key))
	require.Equal(t, "16045690981402826360", key)
}

func TestRecordLap_OverwritesRepeats(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, database.EnsureSession(99, 2023))

	require.NoError(t, database.RecordLap(99, 0, 1, 92345, 30500, 31200))
	// the sim repeats the last lap time every frame; re-recording replaces
	require.NoError(t, database.RecordLap(99, 0, 1, 92345, 30500, 31200))
	require.NoError(t, database.RecordLap(99, 0, 2, 91010, 30100, 30900))

	// a zero lap time means no lap has completed yet
	require.NoError(t, database.RecordLap(99, 0, 3, 0, 0, 0))

	laps, err := database.SessionLaps("99", 0)
	require.NoError(t, err)
	require.Len(t, laps, 2)
	require.Equal(t, 1, laps[0].LapNumber)
	require.Equal(t, uint32(92345), laps[0].LapTimeMS)
	require.Equal(t, uint16(30500), laps[0].Sector1MS)
	require.Equal(t, 2, laps[1].LapNumber)
}

func TestRecentLaps_Limit(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, database.EnsureSession(7, 2023))

	for lap := 1; lap <= 5; lap++ {
		require.NoError(t, database.RecordLap(7, 3, lap, uint32(90000+lap), 0, 0))
	}

	laps, err := database.RecentLaps(3)
	require.NoError(t, err)
	require.Len(t, laps, 3)
	for _, lap := range laps {
		require.Equal(t, "7", lap.SessionUID)
		require.Equal(t, 3, lap.CarIndex)
		require.False(t, lap.RecordedAt.IsZero())
	}
}

func TestSessionLaps_FiltersByCar(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, database.EnsureSession(7, 2023))

	require.NoError(t, database.RecordLap(7, 0, 1, 90001, 0, 0))
	require.NoError(t, database.RecordLap(7, 1, 1, 95001, 0, 0))

	laps, err := database.SessionLaps("7", 1)
	require.NoError(t, err)
	require.Len(t, laps, 1)
	require.Equal(t, uint32(95001), laps[0].LapTimeMS)
}

func TestRecordClassification(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, database.EnsureSession(11, 2023))

	result := telemetry.FinalClassificationData{
		Position:        1,
		GridPosition:    4,
		NumLaps:         12,
		Points:          25,
		ResultStatus:    3,
		BestLapTimeInMS: 88123,
		TotalRaceTime:   1105.25,
	}
	require.NoError(t, database.RecordClassification(11, 5, result))
	// results are re-sent until the session ends; replace in place
	require.NoError(t, database.RecordClassification(11, 5, result))

	var position, points int
	var raceTime float64
	err := database.QueryRow(
		`SELECT position, points, total_race_time FROM classifications WHERE session_uid = ? AND car_index = ?`,
		"11", 5).Scan(&position, &points, &raceTime)
	require.NoError(t, err)
	require.Equal(t, 1, position)
	require.Equal(t, 25, points)
	require.InDelta(t, 1105.25, raceTime, 1e-9)
}
