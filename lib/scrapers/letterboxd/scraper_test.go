package letterboxd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"deathrace-backend/lib/pagecache"
	"deathrace-backend/lib/telemetry"
	"deathrace-backend/lib/timezone"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

// tests run against a local server, so sessions carry none of the
// production bypass machinery
func plainFactory(counter *atomic.Int64) SessionFactory {
	return func() *resty.Client {
		if counter != nil {
			counter.Add(1)
		}
		return resty.New()
	}
}

func fixtureServer(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/unnonueve/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(readFixture(t, "profile.html")))
	})
	mux.HandleFunc("/unnonueve/films/diary/for/2025/page/1/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(readFixture(t, "diary_page1.html")))
	})
	mux.HandleFunc("/unnonueve/films/diary/for/2025/page/2/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(readFixture(t, "diary_page2.html")))
	})
	return httptest.NewServer(mux)
}

func TestScrapeSubject(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/letterboxd")
	defer cleanup()

	server := fixtureServer(t)
	defer server.Close()

	var sessions atomic.Int64
	scraper := NewScraper(ScraperOptions{
		BaseURL: server.URL,
		Factory: plainFactory(&sessions),
	})

	data, err := scraper.ScrapeSubject(context.Background(), "unnonueve", 2025)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, "unnonueve", data.User)
	require.Equal(t, FilmCount{Total: 1204, ThisYear: 87}, data.Counts)

	// 3 usable rows on page 1, 1 on page 2, sorted oldest first
	require.Len(t, data.Entries, 4)
	require.Equal(t, "Amélie", data.Entries[0].Title)
	require.Equal(t, time.Date(2025, time.January, 12, 0, 0, 0, 0, timezone.Location), data.Entries[0].WatchedAt)
	require.Equal(t, "Se7en", data.Entries[3].Title)

	// one session for the profile, one fresh session per diary page
	require.Equal(t, int64(3), sessions.Load())
}

func TestScrapeSubjectAbortsMidPagination(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/letterboxd")
	defer cleanup()

	mux := http.NewServeMux()
	mux.HandleFunc("/unnonueve/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(readFixture(t, "profile.html")))
	})
	mux.HandleFunc("/unnonueve/films/diary/for/2025/page/1/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(readFixture(t, "diary_page1.html")))
	})
	mux.HandleFunc("/unnonueve/films/diary/for/2025/page/2/", func(w http.ResponseWriter, r *http.Request) {
		// the bot mitigation kicking in mid-run
		w.WriteHeader(http.StatusForbidden)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	scraper := NewScraper(ScraperOptions{
		BaseURL: server.URL,
		Factory: plainFactory(nil),
	})

	_, err := scraper.ScrapeSubject(context.Background(), "unnonueve", 2025)
	require.Error(t, err)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, ReasonStatus, fetchErr.Reason)
	require.Equal(t, http.StatusForbidden, fetchErr.Status)
}

func TestScrapeSubjectRetries(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/letterboxd")
	defer cleanup()

	var profileHits atomic.Int64
	mux := http.NewServeMux()
	mux.HandleFunc("/unnonueve/", func(w http.ResponseWriter, r *http.Request) {
		if profileHits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(readFixture(t, "profile.html")))
	})
	mux.HandleFunc("/unnonueve/films/diary/for/2025/page/1/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(readFixture(t, "diary_page2.html")))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	var sessions atomic.Int64
	scraper := NewScraper(ScraperOptions{
		BaseURL: server.URL,
		Factory: plainFactory(&sessions),
		Retry:   RetryPolicy{Attempts: 2},
	})

	data, err := scraper.ScrapeSubject(context.Background(), "unnonueve", 2025)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, int64(2), profileHits.Load())
	require.Len(t, data.Entries, 1)
	// the retried attempt got a session of its own
	require.Equal(t, int64(3), sessions.Load())
}

func TestScrapeSubjectServesFromCache(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/letterboxd")
	defer cleanup()

	server := fixtureServer(t)
	defer server.Close()

	cache, err := pagecache.Open(":memory:", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	var sessions atomic.Int64
	scraper := NewScraper(ScraperOptions{
		BaseURL: server.URL,
		Factory: plainFactory(&sessions),
		Cache:   cache,
	})

	first, err := scraper.ScrapeSubject(context.Background(), "unnonueve", 2025)
	if err != nil {
		t.Fatal(err)
	}
	networkSessions := sessions.Load()

	second, err := scraper.ScrapeSubject(context.Background(), "unnonueve", 2025)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, first, second)
	// the second run never touched the network
	require.Equal(t, networkSessions, sessions.Load())
}

func TestScrapeSubjectFallsBackToStaleCache(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/letterboxd")
	defer cleanup()

	// one server at a constant URL so the cache keys from the first run
	// match the requests of the second; the flag flips it into an
	// outage between runs
	var outage atomic.Bool
	fixtures := fixtureServer(t)
	defer fixtures.Close()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if outage.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fixtures.Config.Handler.ServeHTTP(w, r)
	}))
	defer server.Close()

	// a negative ttl expires every entry the moment it lands, so the
	// second run cannot be served by a fresh hit
	cache, err := pagecache.Open(":memory:", -time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	first, err := NewScraper(ScraperOptions{
		BaseURL: server.URL,
		Factory: plainFactory(nil),
		Cache:   cache,
	}).ScrapeSubject(context.Background(), "unnonueve", 2025)
	if err != nil {
		t.Fatal(err)
	}

	outage.Store(true)

	second, err := NewScraper(ScraperOptions{
		BaseURL: server.URL,
		Factory: plainFactory(nil),
		Cache:   cache,
	}).ScrapeSubject(context.Background(), "unnonueve", 2025)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, first, second)
}

func TestScrapeSubjectNoStaleCopyStillFails(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scrapers/letterboxd")
	defer cleanup()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	cache, err := pagecache.Open(":memory:", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	_, err = NewScraper(ScraperOptions{
		BaseURL: down.URL,
		Factory: plainFactory(nil),
		Cache:   cache,
	}).ScrapeSubject(context.Background(), "unnonueve", 2025)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, ReasonStatus, fetchErr.Reason)
}
