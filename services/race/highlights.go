package race

import (
	"fmt"

	"deathrace-backend/lib/scrapers/letterboxd"
)

// highlights produces display-ready fun facts over one diary. the
// rendering layer picks which ones to surface.
func highlights(entries []letterboxd.DiaryEntry) []string {
	if len(entries) == 0 {
		return nil
	}

	var out []string

	var oldest, newest *letterboxd.DiaryEntry
	for i := range entries {
		e := &entries[i]
		if e.ReleaseYear == 0 {
			// parser tolerates rows without a release year, they
			// cannot compete for oldest/newest
			continue
		}
		if oldest == nil || e.ReleaseYear < oldest.ReleaseYear {
			oldest = e
		}
		if newest == nil || e.ReleaseYear > newest.ReleaseYear {
			newest = e
		}
	}
	if oldest != nil {
		out = append(out, fmt.Sprintf("Oldest film: %q (%d)", oldest.Title, oldest.ReleaseYear))
		out = append(out, fmt.Sprintf("Newest film: %q (%d)", newest.Title, newest.ReleaseYear))
	}

	var rated []*letterboxd.DiaryEntry
	ratingSum := 0
	for i := range entries {
		if entries[i].Rating != nil {
			rated = append(rated, &entries[i])
			ratingSum += *entries[i].Rating
		}
	}
	if len(rated) > 0 {
		highest, lowest := rated[0], rated[0]
		for _, e := range rated[1:] {
			if *e.Rating > *highest.Rating {
				highest = e
			}
			if *e.Rating < *lowest.Rating {
				lowest = e
			}
		}
		out = append(out, fmt.Sprintf("Highest rated: %q (%d) with %d/10", highest.Title, highest.ReleaseYear, *highest.Rating))
		out = append(out, fmt.Sprintf("Lowest rated: %q (%d) with %d/10", lowest.Title, lowest.ReleaseYear, *lowest.Rating))
		out = append(out, fmt.Sprintf("Average rating: %.1f", float64(ratingSum)/float64(len(rated))))
	}

	out = append(out, fmt.Sprintf("Total films logged: %d", len(entries)))
	out = append(out, fmt.Sprintf("Rated films: %d", len(rated)))

	return out
}
