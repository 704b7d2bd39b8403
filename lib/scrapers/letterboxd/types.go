package letterboxd

import "time"

// DiaryEntry is one logged film view. Rating is on letterboxd's
// half-star scale, 0-10, nil when the entry was explicitly left
// unrated (which is not the same thing as zero stars).
type DiaryEntry struct {
	WatchedAt   time.Time
	Title       string
	ReleaseYear int
	Rating      *int
}

// FilmCount mirrors the two numbers on the profile statistics block.
// ThisYear is always a subset of Total.
type FilmCount struct {
	Total    int
	ThisYear int
}

// DiaryPage is the parsed form of a single diary listing page.
// Entries appear in page order, newest first.
type DiaryPage struct {
	Entries []DiaryEntry
	HasNext bool
}

// SubjectData is everything scraped for one user in one run: the
// profile counters and the full diary for the target year, sorted
// ascending by watch date.
type SubjectData struct {
	User    string
	Counts  FilmCount
	Entries []DiaryEntry
}
