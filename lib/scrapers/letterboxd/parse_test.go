package letterboxd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"deathrace-backend/lib/telemetry"
	"deathrace-backend/lib/timezone"

	"github.com/stretchr/testify/require"
)

func readFixture(t testing.TB, name string) string {
	content, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return string(content)
}

func TestParseProfile(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/letterboxd")
	defer cleanup()

	counts, err := ParseProfile(readFixture(t, "profile.html"))
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, 1204, counts.Total)
	require.Equal(t, 87, counts.ThisYear)
}

func TestParseProfileStructuralMismatch(t *testing.T) {
	cases := []struct {
		name   string
		markup string
	}{
		{
			name:   "no statistics block",
			markup: `<html><body><div class="profile-header"></div></body></html>`,
		},
		{
			name: "label without numeric value",
			markup: `<html><body><div class="profile-stats js-profile-stats">
				<h4 class="profile-statistic statistic"><span class="value">n/a</span><span class="definition">Films</span></h4>
				<h4 class="profile-statistic statistic"><span class="value">87</span><span class="definition">This year</span></h4>
			</div></body></html>`,
		},
		{
			name: "missing expected label",
			markup: `<html><body><div class="profile-stats js-profile-stats">
				<h4 class="profile-statistic statistic"><span class="value">1204</span><span class="definition">Films</span></h4>
			</div></body></html>`,
		},
		{
			name: "this-year count larger than total",
			markup: `<html><body><div class="profile-stats js-profile-stats">
				<h4 class="profile-statistic statistic"><span class="value">87</span><span class="definition">Films</span></h4>
				<h4 class="profile-statistic statistic"><span class="value">1204</span><span class="definition">This year</span></h4>
			</div></body></html>`,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseProfile(test.markup)
			var structural *StructuralError
			require.ErrorAs(t, err, &structural)
		})
	}
}

func TestParseDiaryPage(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/letterboxd")
	defer cleanup()

	page, err := ParseDiaryPage(readFixture(t, "diary_page1.html"))
	if err != nil {
		t.Fatal(err)
	}

	// the row without a date link is dropped, not fatal
	require.Len(t, page.Entries, 3)
	require.True(t, page.HasNext)

	first := page.Entries[0]
	require.Equal(t, "Se7en", first.Title)
	require.Equal(t, 1995, first.ReleaseYear)
	require.Equal(t, time.Date(2025, time.February, 6, 0, 0, 0, 0, timezone.Location), first.WatchedAt)
	require.NotNil(t, first.Rating)
	require.Equal(t, 9, *first.Rating)

	// not-rated marker wins over the leftover numeric field
	second := page.Entries[1]
	require.Equal(t, "The Wrong Trousers", second.Title)
	require.Nil(t, second.Rating)

	// missing release year is tolerated as zero
	third := page.Entries[2]
	require.Equal(t, "Some Home Movie", third.Title)
	require.Equal(t, 0, third.ReleaseYear)
	require.Nil(t, third.Rating)
}

func TestParseDiaryPageLastPage(t *testing.T) {
	page, err := ParseDiaryPage(readFixture(t, "diary_page2.html"))
	if err != nil {
		t.Fatal(err)
	}

	require.Len(t, page.Entries, 1)
	require.False(t, page.HasNext)
	require.Equal(t, "Amélie", page.Entries[0].Title)
}

func TestParseDiaryPagePaginationSignals(t *testing.T) {
	cases := []struct {
		name     string
		markup   string
		expected bool
	}{
		{
			name:     "no pagination block",
			markup:   `<html><body><table class="diary-table"></table></body></html>`,
			expected: false,
		},
		{
			name: "next link present",
			markup: `<html><body><div class="pagination">
				<div class="paginate-nextprev"><a class="next" href="/x/page/2/">Older</a></div>
			</div></body></html>`,
			expected: true,
		},
		{
			name: "next link disabled",
			markup: `<html><body><div class="pagination">
				<div class="paginate-nextprev paginate-disabled"><a class="next" href="#">Older</a></div>
			</div></body></html>`,
			expected: false,
		},
		{
			name: "ambiguous block without signals",
			markup: `<html><body><div class="pagination">
				<div class="paginate-nextprev"></div>
			</div></body></html>`,
			expected: false,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			page, err := ParseDiaryPage(test.markup)
			if err != nil {
				t.Fatal(err)
			}
			require.Equal(t, test.expected, page.HasNext)
		})
	}
}
