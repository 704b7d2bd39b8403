package race

import (
	"deathrace-backend/lib/scrapers/letterboxd"
)

// WeeklyFilmCount counts diary entries over the trailing 7-day
// window ending on the run date and the 7-day window before it.
type WeeklyFilmCount struct {
	LastWeek int
	ThisWeek int
}

// FilmStreak measures consecutive calendar days with at least one
// diary entry. several films on the same day still count as a single
// active day.
type FilmStreak struct {
	Current int
	Longest int
}

// Subject is the complete derived dataset for one participant,
// assembled once per run and treated as read-only afterwards.
type Subject struct {
	Name       string
	Counts     letterboxd.FilmCount
	Weekly     WeeklyFilmCount
	Streak     FilmStreak
	Rate       float64
	Entries    []letterboxd.DiaryEntry
	Highlights []string
}
