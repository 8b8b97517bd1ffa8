package history

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/ozgurkara/portfoy/internal/domain"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE daily_snapshots (
			portfolio_id  TEXT NOT NULL,
			snapshot_date TEXT NOT NULL,
			value_try     REAL NOT NULL,
			created_at    INTEGER NOT NULL,
			PRIMARY KEY (portfolio_id, snapshot_date)
		);
	`)
	require.NoError(t, err)

	return NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestAppendAndReadSeries(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.AppendDailySnapshot("p1", "2026-08-27", 10000))
	require.NoError(t, repo.AppendDailySnapshot("p1", "2026-08-28", 10500))
	require.NoError(t, repo.AppendDailySnapshot("p2", "2026-08-28", 999))

	series, err := repo.ReadSeries("p1")
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2026-08-27", series[0].Date)
	assert.InDelta(t, 10500.0, series[1].ValueTry, 1e-9)
}

func TestAppendSameDayOverwrites(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.AppendDailySnapshot("p1", "2026-08-28", 10000))
	require.NoError(t, repo.AppendDailySnapshot("p1", "2026-08-28", 10800))

	series, err := repo.ReadSeries("p1")
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.InDelta(t, 10800.0, series[0].ValueTry, 1e-9)
}

func TestAppendRejectsBadDate(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.AppendDailySnapshot("p1", "28-08-2026", 100)
	assert.Error(t, err)
}

func TestClearSeries(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.AppendDailySnapshot("p1", "2026-08-28", 10000))
	require.NoError(t, repo.ClearSeries("p1"))

	series, err := repo.ReadSeries("p1")
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestTrendShortSeriesHasNoOverlay(t *testing.T) {
	series := []domain.SnapshotPoint{
		{Date: "2026-08-27", ValueTry: 100},
		{Date: "2026-08-28", ValueTry: 110},
	}

	points := Trend(series)

	require.Len(t, points, 2)
	assert.Zero(t, points[0].Smoothed)
	assert.Zero(t, points[1].Smoothed)
}

func TestTrendSmoothedValues(t *testing.T) {
	var series []domain.SnapshotPoint
	for i := 0; i < 10; i++ {
		series = append(series, domain.SnapshotPoint{
			Date:     fmt.Sprintf("2026-08-%02d", i+1),
			ValueTry: float64(100 + i*10),
		})
	}

	points := Trend(series)

	require.Len(t, points, 10)
	// The window is 7 points; the first smoothed value appears at index 6 and
	// equals the mean of points 0..6.
	assert.Zero(t, points[5].Smoothed)
	assert.InDelta(t, 130.0, points[6].Smoothed, 1e-9)
	assert.InDelta(t, 160.0, points[9].Smoothed, 1e-9)
}
