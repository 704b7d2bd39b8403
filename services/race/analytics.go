package race

import (
	"slices"
	"time"

	"deathrace-backend/lib/scrapers/letterboxd"
	"deathrace-backend/lib/timezone"
)

func weeklyCount(entries []letterboxd.DiaryEntry, now time.Time) WeeklyFilmCount {
	var counts WeeklyFilmCount
	for _, e := range entries {
		// whole days between watch date and the run date, so the
		// two windows partition the last 14 calendar days cleanly
		delta := timezone.DaysBetween(e.WatchedAt, now)
		switch {
		case delta >= 0 && delta < 7:
			counts.ThisWeek++
		case delta >= 7 && delta < 14:
			counts.LastWeek++
		}
	}
	return counts
}

// activeDays reduces entries to the sorted set of unique calendar
// days that have at least one entry.
func activeDays(entries []letterboxd.DiaryEntry) []time.Time {
	days := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		days = append(days, timezone.Day(e.WatchedAt))
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(days, func(a, b time.Time) bool { return a.Equal(b) })
}

func streak(entries []letterboxd.DiaryEntry, now time.Time) FilmStreak {
	days := activeDays(entries)
	if len(days) == 0 {
		return FilmStreak{}
	}

	longest := 1
	current := 1
	for i := 1; i < len(days); i++ {
		if timezone.DaysBetween(days[i-1], days[i]) == 1 {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}

	// a streak is only alive while its last active day is the run
	// date or the day before, anything older has already lapsed
	sinceLast := timezone.DaysBetween(days[len(days)-1], now)
	if sinceLast < 0 || sinceLast > 1 {
		current = 0
	}

	return FilmStreak{Current: current, Longest: longest}
}

func dailyRate(thisYear int, now time.Time) float64 {
	return float64(thisYear) / float64(now.YearDay())
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInYear(year int) int {
	if isLeapYear(year) {
		return 366
	}
	return 365
}

// ProjectedTotal extrapolates a daily rate to a year-end film count
// for the run date's year.
func ProjectedTotal(rate float64, now time.Time) float64 {
	return rate * float64(daysInYear(now.Year()))
}

// BuildSubject derives all per-participant metrics from one scrape.
// `now` is the run date, injected so results are reproducible.
func BuildSubject(data letterboxd.SubjectData, now time.Time) Subject {
	return Subject{
		Name:       data.User,
		Counts:     data.Counts,
		Weekly:     weeklyCount(data.Entries, now),
		Streak:     streak(data.Entries, now),
		Rate:       dailyRate(data.Counts.ThisYear, now),
		Entries:    data.Entries,
		Highlights: highlights(data.Entries),
	}
}
