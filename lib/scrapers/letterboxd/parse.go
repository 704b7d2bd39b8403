package letterboxd

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"deathrace-backend/lib/htmlutil"
	"deathrace-backend/lib/textutil"
	"deathrace-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

const (
	labelTotalFilms = "Films"
	labelThisYear   = "This year"
)

func parseCount(value string) (int, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.Atoi(value)
}

// ParseProfile extracts the film counters from a profile page. a
// statistic label without a usable number next to it means the page
// no longer looks like we expect, which is a structural error rather
// than a zero.
func ParseProfile(markup string) (FilmCount, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return FilmCount{}, err
	}

	stats := doc.Find("div.profile-stats")
	if stats.Length() == 0 {
		return FilmCount{}, &StructuralError{Detail: "profile statistics block not found"}
	}

	var counts FilmCount
	var foundTotal, foundThisYear bool
	var structuralErr error

	stats.Find("h4.profile-statistic").EachWithBreak(func(_ int, h4 *goquery.Selection) bool {
		label := strings.TrimSpace(h4.Find("span.definition").Text())
		value := h4.Find("span.value").Text()

		switch label {
		case labelTotalFilms:
			n, err := parseCount(value)
			if err != nil {
				structuralErr = &StructuralError{
					Detail: fmt.Sprintf("%q statistic has no numeric value: %q", label, value),
				}
				return false
			}
			counts.Total = n
			foundTotal = true
		case labelThisYear:
			n, err := parseCount(value)
			if err != nil {
				structuralErr = &StructuralError{
					Detail: fmt.Sprintf("%q statistic has no numeric value: %q", label, value),
				}
				return false
			}
			counts.ThisYear = n
			foundThisYear = true
		}
		return true
	})

	if structuralErr != nil {
		return FilmCount{}, structuralErr
	}
	if !foundTotal || !foundThisYear {
		return FilmCount{}, &StructuralError{
			Detail: fmt.Sprintf(
				"statistics block is missing expected labels (films: %v, this year: %v)",
				foundTotal, foundThisYear,
			),
		}
	}
	if counts.ThisYear > counts.Total {
		// the year-to-date count is a subset of the lifetime count,
		// reading it larger means we grabbed the wrong values
		return FilmCount{}, &StructuralError{
			Detail: fmt.Sprintf("this-year count %d exceeds total %d", counts.ThisYear, counts.Total),
		}
	}
	return counts, nil
}

// ParseDiaryPage extracts the diary rows of one listing page plus
// whether another page follows. malformed rows are skipped with a
// warning, they never abort the page.
func ParseDiaryPage(markup string) (DiaryPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return DiaryPage{}, err
	}

	var page DiaryPage
	doc.Find("tr.diary-entry-row").Each(func(i int, row *goquery.Selection) {
		entry, err := parseDiaryRow(row)
		if err != nil {
			slog.Warn("skipping malformed diary row", "row", i, "err", err)
			return
		}
		page.Entries = append(page.Entries, entry)
	})

	page.HasNext = parseHasNext(doc)
	return page, nil
}

// the watch date lives in the day cell's link, shaped like
// /{user}/films/diary/for/2025/02/06/
func parseWatchDate(row *goquery.Selection) (time.Time, error) {
	href := row.Find("td.td-day a").AttrOr("href", "")
	if href == "" {
		return time.Time{}, fmt.Errorf("no date link")
	}

	parts := strings.Split(strings.Trim(href, "/"), "/")
	if len(parts) < 7 {
		return time.Time{}, fmt.Errorf("date link %q has too few path segments", href)
	}

	year, err := strconv.Atoi(parts[4])
	if err != nil {
		return time.Time{}, fmt.Errorf("date link %q: %w", href, err)
	}
	month, err := strconv.Atoi(parts[5])
	if err != nil {
		return time.Time{}, fmt.Errorf("date link %q: %w", href, err)
	}
	day, err := strconv.Atoi(parts[6])
	if err != nil {
		return time.Time{}, fmt.Errorf("date link %q: %w", href, err)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date link %q is out of range", href)
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, timezone.Location), nil
}

func parseDiaryRow(row *goquery.Selection) (DiaryEntry, error) {
	watchedAt, err := parseWatchDate(row)
	if err != nil {
		return DiaryEntry{}, err
	}

	titleSel := row.Find("h3.headline-3")
	if titleSel.Length() == 0 {
		return DiaryEntry{}, fmt.Errorf("no title element")
	}
	title := textutil.CollapseWhitespace(htmlutil.CleanText(titleSel.Nodes[0]))
	if title == "" {
		return DiaryEntry{}, fmt.Errorf("empty title")
	}

	// a missing release year is tolerated, plenty of obscure entries
	// simply do not carry one
	releaseYear, err := parseCount(row.Find("td.td-released").Text())
	if err != nil {
		releaseYear = 0
	}

	return DiaryEntry{
		WatchedAt:   watchedAt,
		Title:       title,
		ReleaseYear: releaseYear,
		Rating:      parseRating(row),
	}, nil
}

// the not-rated marker wins over any numeric field left behind in
// the row, an unrated rewatch still carries the old rating input
func parseRating(row *goquery.Selection) *int {
	if row.HasClass("not-rated") {
		return nil
	}

	value := row.Find("input.rateit-field").AttrOr("value", "")
	rating, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || rating < 0 || rating > 10 {
		return nil
	}
	return &rating
}

func parseHasNext(doc *goquery.Document) bool {
	pagination := doc.Find("div.pagination")
	if pagination.Length() == 0 {
		// single-page diaries render no pagination block at all
		return false
	}

	next := pagination.Find("a.next")
	if next.Length() == 0 {
		if pagination.Find(".paginate-disabled").Length() == 0 {
			slog.Warn("pagination block has neither a next link nor a disabled marker, assuming last page")
		}
		return false
	}
	if next.Parent().HasClass("paginate-disabled") {
		return false
	}
	return true
}
