package race

import (
	"math"
	"sort"

	"deathrace-backend/lib/scrapers/letterboxd"
	"deathrace-backend/lib/textutil"
)

// CommonFilm is a film both participants logged this year. Rating is
// the combined average of both sides (or the single side that rated
// it), nil when neither did.
type CommonFilm struct {
	Title       string
	ReleaseYear int
	Rating      *float64
}

// Comparison is the cross-participant result set. Gap is A minus B
// in year-to-date films; Leader is empty on a tie; CatchUpDays is
// nil unless the trailing participant is actually gaining.
type Comparison struct {
	Gap         int
	Leader      string
	CatchUpDays *int
	CommonFilms []CommonFilm
}

// Compare derives the race standings between two subjects. pure
// over its inputs, both subjects are only borrowed.
func Compare(a, b Subject) Comparison {
	gap := a.Counts.ThisYear - b.Counts.ThisYear

	leader := ""
	switch {
	case gap > 0:
		leader = a.Name
	case gap < 0:
		leader = b.Name
	}

	return Comparison{
		Gap:         gap,
		Leader:      leader,
		CatchUpDays: catchUpDays(a, b, gap),
		CommonFilms: CommonFilms(a, b),
	}
}

// catchUpDays estimates days until the trailing participant draws
// level assuming both keep their current daily rate. only finite
// when the trailing rate strictly exceeds the leading rate.
func catchUpDays(a, b Subject, gap int) *int {
	if gap == 0 {
		return nil
	}

	trailing, leading := b, a
	if gap < 0 {
		trailing, leading = a, b
	}

	rateDiff := trailing.Rate - leading.Rate
	if rateDiff <= 0 {
		return nil
	}

	days := int(math.Round(math.Abs(float64(gap)) / rateDiff))
	if days < 0 {
		days = 0
	}
	return &days
}

type filmKey struct {
	title string
	year  int
}

func entryKey(e letterboxd.DiaryEntry) filmKey {
	return filmKey{title: textutil.NormalizeTitle(e.Title), year: e.ReleaseYear}
}

// per-film rating lists for one diary, plus keys in order of first
// encounter and a display title per key
func filmRatings(entries []letterboxd.DiaryEntry) (map[filmKey][]int, []filmKey, map[filmKey]string) {
	ratings := map[filmKey][]int{}
	var order []filmKey
	display := map[filmKey]string{}

	for _, e := range entries {
		key := entryKey(e)
		if _, seen := display[key]; !seen {
			order = append(order, key)
			display[key] = e.Title
		}
		if e.Rating != nil {
			ratings[key] = append(ratings[key], *e.Rating)
		}
	}
	return ratings, order, display
}

func averageRating(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	avg := float64(sum) / float64(len(values))
	return &avg
}

func combineRatings(a, b *float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return b
	case b == nil:
		return a
	}
	combined := (*a + *b) / 2
	return &combined
}

const commonFilmsLimit = 10

// CommonFilms ranks the films both subjects logged, best combined
// rating first, unrated films always last, capped at ten. matching
// keys on normalized title + release year, so "Se7en" and "se7en"
// meet but films of the same name from different years never do.
func CommonFilms(a, b Subject) []CommonFilm {
	ratingsA, orderA, displayA := filmRatings(a.Entries)
	ratingsB, _, displayB := filmRatings(b.Entries)

	var common []CommonFilm
	for _, key := range orderA {
		if _, watchedByB := displayB[key]; !watchedByB {
			continue
		}
		common = append(common, CommonFilm{
			Title:       displayA[key],
			ReleaseYear: key.year,
			Rating:      combineRatings(averageRating(ratingsA[key]), averageRating(ratingsB[key])),
		})
	}

	// stable keeps first-encounter order between equal ratings
	sort.SliceStable(common, func(i, j int) bool {
		ri, rj := common[i].Rating, common[j].Rating
		if ri == nil {
			return false
		}
		if rj == nil {
			return true
		}
		return *ri > *rj
	})

	if len(common) > commonFilmsLimit {
		common = common[:commonFilmsLimit]
	}
	return common
}
