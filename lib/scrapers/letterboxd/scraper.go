package letterboxd

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"deathrace-backend/lib/pagecache"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/letterboxd")

const DefaultBaseURL = "https://letterboxd.com"

type Scraper struct {
	baseURL string
	factory SessionFactory
	retry   RetryPolicy
	cache   *pagecache.Cache
}

type ScraperOptions struct {
	// defaults to DefaultBaseURL
	BaseURL string
	Factory SessionFactory
	Retry   RetryPolicy
	// optional, lets pre-populated fixtures serve pages offline
	Cache *pagecache.Cache
}

func NewScraper(opts ScraperOptions) Scraper {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Scraper{
		baseURL: baseURL,
		factory: opts.Factory,
		retry:   opts.Retry,
		cache:   opts.Cache,
	}
}

// fetch obtains raw markup for a url, from the cache when possible.
// every network attempt runs on a session freshly minted by the
// factory, see SessionFactory for why reuse is off the table.
func (s Scraper) fetch(ctx context.Context, url string) (string, error) {
	if s.cache != nil {
		if markup, ok := s.cache.Get(ctx, url); ok {
			return markup, nil
		}
	}

	var markup string
	var err error
	for attempt := 1; ; attempt++ {
		markup, err = fetchPage(ctx, s.factory(), url)
		if err == nil {
			break
		}
		if attempt >= s.retry.attempts() {
			// out of attempts. an aged copy beats no copy, the
			// analytics only drift by however long the cache sat
			if s.cache != nil {
				if stale, ok := s.cache.GetStale(ctx, url); ok {
					slog.Warn("serving stale cached page", "url", url, "err", err)
					return stale, nil
				}
			}
			return "", err
		}
		slog.Warn("retrying fetch", "url", url, "attempt", attempt, "err", err)
		if err := s.retry.sleep(ctx, attempt); err != nil {
			return "", err
		}
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, url, markup); err != nil {
			slog.Warn("failed to cache page", "url", url, "err", err)
		}
	}
	return markup, nil
}

func (s Scraper) profileURL(user string) string {
	return fmt.Sprintf("%s/%s/", s.baseURL, user)
}

func (s Scraper) diaryURL(user string, year, page int) string {
	return fmt.Sprintf("%s/%s/films/diary/for/%d/page/%d/", s.baseURL, user, year, page)
}

// ScrapeSubject pulls the profile counters and the complete diary of
// one user for one year. a failed fetch mid-pagination aborts the
// whole subject, a partially scraped diary must never masquerade as
// a complete one.
func (s Scraper) ScrapeSubject(ctx context.Context, user string, year int) (SubjectData, error) {
	ctx, span := tracer.Start(ctx, "ScrapeSubject")
	defer span.End()

	markup, err := s.fetch(ctx, s.profileURL(user))
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch profile")
		return SubjectData{}, fmt.Errorf("profile of %q: %w", user, err)
	}
	counts, err := ParseProfile(markup)
	if err != nil {
		span.SetStatus(codes.Error, "failed to parse profile")
		return SubjectData{}, fmt.Errorf("profile of %q: %w", user, err)
	}

	var entries []DiaryEntry
	for pageNum := 1; ; pageNum++ {
		url := s.diaryURL(user, year, pageNum)
		slog.Info("fetching diary page", "user", user, "year", year, "page", pageNum)

		markup, err := s.fetch(ctx, url)
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch diary page")
			return SubjectData{}, fmt.Errorf("diary page %d of %q: %w", pageNum, user, err)
		}
		page, err := ParseDiaryPage(markup)
		if err != nil {
			span.SetStatus(codes.Error, "failed to parse diary page")
			return SubjectData{}, fmt.Errorf("diary page %d of %q: %w", pageNum, user, err)
		}

		if len(page.Entries) == 0 {
			// an empty diary year is valid, but an empty page is
			// worth noticing in case the row markup drifted
			slog.Warn("diary page parsed no rows", "user", user, "page", pageNum)
		}
		entries = append(entries, page.Entries...)

		if !page.HasNext {
			break
		}
	}

	// diary pages list newest first, streak and window math
	// downstream want ascending dates
	slices.SortStableFunc(entries, func(a, b DiaryEntry) int {
		return a.WatchedAt.Compare(b.WatchedAt)
	})

	return SubjectData{
		User:    user,
		Counts:  counts,
		Entries: entries,
	}, nil
}
