package race

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deathrace-backend/lib/scrapers/letterboxd"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/race")

// Result bundles both derived datasets with their comparison.
type Result struct {
	A          Subject
	B          Subject
	Comparison Comparison
}

// Run scrapes both participants, derives their metrics and compares
// them. the two extractions run concurrently and share nothing, each
// diary page already gets its own session (see letterboxd.SessionFactory),
// so the only sequencing constraint is pagination within one subject.
// `now` is the run date all window/streak/projection math anchors on.
func Run(ctx context.Context, scraper letterboxd.Scraper, userA, userB string, year int, now time.Time) (Result, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	var dataA, dataB letterboxd.SubjectData
	var errA, errB error

	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		dataA, errA = scraper.ScrapeSubject(ctx, userA, year)
	}()
	go func() {
		defer wg.Done()
		dataB, errB = scraper.ScrapeSubject(ctx, userB, year)
	}()
	wg.Wait()

	if errA != nil {
		span.SetStatus(codes.Error, "subject extraction failed")
		return Result{}, fmt.Errorf("subject %q: %w", userA, errA)
	}
	if errB != nil {
		span.SetStatus(codes.Error, "subject extraction failed")
		return Result{}, fmt.Errorf("subject %q: %w", userB, errB)
	}

	a := BuildSubject(dataA, now)
	b := BuildSubject(dataB, now)

	return Result{
		A:          a,
		B:          b,
		Comparison: Compare(a, b),
	}, nil
}
