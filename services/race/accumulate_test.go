package race

import (
	"testing"
	"time"

	"deathrace-backend/lib/scrapers/letterboxd"
	"deathrace-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func TestAccumulatedByDay(t *testing.T) {
	now := time.Date(2025, time.January, 5, 15, 0, 0, 0, timezone.Location)
	entries := []letterboxd.DiaryEntry{
		entryOn(2025, time.January, 2),
		entryOn(2025, time.January, 2),
		entryOn(2025, time.January, 4),
		entryOn(2024, time.December, 31), // previous year, ignored
		entryOn(2025, time.January, 9),   // after the run date, ignored
	}

	points := AccumulatedByDay(entries, 2025, now)
	require.Len(t, points, 5)

	totals := make([]int, len(points))
	for i, p := range points {
		totals[i] = p.Total
	}
	require.Equal(t, []int{0, 2, 2, 3, 3}, totals)
	require.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, timezone.Location), points[0].Date)
}

func TestAccumulatedByDayPastYear(t *testing.T) {
	now := time.Date(2025, time.June, 1, 0, 0, 0, 0, timezone.Location)

	// a full past year runs through december 31
	points := AccumulatedByDay(nil, 2023, now)
	require.Len(t, points, 365)

	// a future year has no days to chart yet
	require.Nil(t, AccumulatedByDay(nil, 2026, now))
}
