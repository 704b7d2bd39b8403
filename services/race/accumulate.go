package race

import (
	"time"

	"deathrace-backend/lib/scrapers/letterboxd"
	"deathrace-backend/lib/timezone"
)

// DayCount is one point on the accumulated-films chart the rendering
// layer draws.
type DayCount struct {
	Date  time.Time
	Total int
}

// AccumulatedByDay returns the running film total for every calendar
// day from January 1 of the target year through the run date (or the
// end of the year for past years).
func AccumulatedByDay(entries []letterboxd.DiaryEntry, year int, now time.Time) []DayCount {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, timezone.Location)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, timezone.Location)
	if today := timezone.Day(now); today.Before(end) {
		end = today
	}
	if end.Before(start) {
		return nil
	}

	perDay := map[time.Time]int{}
	for _, e := range entries {
		day := timezone.Day(e.WatchedAt)
		if day.Before(start) || day.After(end) {
			continue
		}
		perDay[day]++
	}

	var out []DayCount
	total := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		total += perDay[day]
		out = append(out, DayCount{Date: day, Total: total})
	}
	return out
}
