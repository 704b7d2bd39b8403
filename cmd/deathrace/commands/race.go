package commands

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"deathrace-backend/lib/configutil"
	"deathrace-backend/lib/pagecache"
	"deathrace-backend/lib/restyutil"
	"deathrace-backend/lib/scrapers/letterboxd"
	"deathrace-backend/lib/telemetry"
	"deathrace-backend/lib/timezone"
	"deathrace-backend/services/race"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type cacheConfig struct {
	Path       string `json:"path"`
	TtlSeconds int    `json:"ttl_seconds"`
}

type raceConfig struct {
	UserA string      `json:"user_a"`
	UserB string      `json:"user_b"`
	Year  int         `json:"year"`
	Cache cacheConfig `json:"cache"`
}

var configPath *string

func init() {
	configPath = raceCmd.Flags().String("config", "deathrace.json5", "The config naming the two participants.")
	rootCmd.AddCommand(raceCmd)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func newScraper(cfg raceConfig) (letterboxd.Scraper, func()) {
	cleanup := func() {}

	var output restyutil.InstrumentOutput
	if *verbose {
		output = restyutil.NewFilesystemOutput(".dev/resty/deathrace")
	}

	opts := letterboxd.ScraperOptions{
		Factory: letterboxd.NewSessionFactory(letterboxd.SessionOptions{
			Output: output,
		}),
		Retry: letterboxd.RetryPolicy{Attempts: 3, Backoff: time.Second * 2},
	}

	if cfg.Cache.Path != "" {
		ttl := time.Duration(cfg.Cache.TtlSeconds) * time.Second
		if ttl == 0 {
			ttl = time.Hour
		}
		cache, err := pagecache.Open(cfg.Cache.Path, ttl)
		if err != nil {
			slog.Warn("failed to open page cache, scraping without it", "path", cfg.Cache.Path, "err", err)
		} else {
			opts.Cache = cache
			cleanup = func() { cache.Close() }
		}
	}

	return letterboxd.NewScraper(opts), cleanup
}

func renderSubject(subject race.Subject, now time.Time) {
	t := newTable()
	t.SetTitle(subject.Name)
	t.AppendRows([]table.Row{
		{"Total films", subject.Counts.Total},
		{"This year", subject.Counts.ThisYear},
		{"Last 7 days", subject.Weekly.ThisWeek},
		{"7 days before", subject.Weekly.LastWeek},
		{"Current streak", fmt.Sprintf("%d days", subject.Streak.Current)},
		{"Longest streak", fmt.Sprintf("%d days", subject.Streak.Longest)},
		{"Speed", fmt.Sprintf("%.2f films/day", subject.Rate)},
		{"Projection", int(race.ProjectedTotal(subject.Rate, now))},
	})
	t.Render()

	for _, h := range subject.Highlights {
		fmt.Println("  " + h)
	}
}

func renderComparison(result race.Result) {
	c := result.Comparison

	switch {
	case c.Leader == "":
		fmt.Println("The race is tied!")
	case c.CatchUpDays != nil:
		fmt.Printf(
			"%s leads by %d films, but the other side is faster: level in ~%d days.\n",
			c.Leader, abs(c.Gap), *c.CatchUpDays,
		)
	default:
		fmt.Printf("%s leads by %d films and is not slowing down.\n", c.Leader, abs(c.Gap))
	}

	if len(c.CommonFilms) > 0 {
		t := newTable()
		t.SetTitle("Top films in common")
		t.AppendHeader(table.Row{"Title", "Year", "Avg rating"})
		for _, film := range c.CommonFilms {
			rating := "-"
			if film.Rating != nil {
				rating = fmt.Sprintf("%.1f", *film.Rating)
			}
			t.AppendRow(table.Row{film.Title, film.ReleaseYear, rating})
		}
		t.Render()
	}

	near := race.SuggestNearMatches(result.A, result.B, 0.92)
	if len(near) > 0 {
		t := newTable()
		t.SetTitle("Possible catalogue mismatches")
		t.AppendHeader(table.Row{result.A.Name, result.B.Name, "Similarity"})
		for _, m := range near {
			t.AppendRow(table.Row{m.Left, m.Right, fmt.Sprintf("%.2f", m.Similarity)})
		}
		t.Render()
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var raceCmd = &cobra.Command{
	Use:   "race [--config <path/to/deathrace.json5>]",
	Short: "Scrapes both participants and prints the current standings.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := configutil.ReadConfig[raceConfig](*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to read config:", err)
			os.Exit(1)
		}
		if cfg.UserA == "" || cfg.UserB == "" {
			fmt.Fprintln(os.Stderr, "config must name both participants (user_a, user_b)")
			os.Exit(1)
		}

		now := timezone.Now()
		year := cfg.Year
		if year == 0 {
			year = now.Year()
		}

		ctx := cmd.Context()
		telemetry.InstrumentPerfStats(ctx)

		scraper, cleanup := newScraper(cfg)
		defer cleanup()

		t1 := time.Now()
		result, err := race.Run(ctx, scraper, cfg.UserA, cfg.UserB, year, now)
		if err != nil {
			fmt.Fprintln(os.Stderr, "race aborted:", err)
			os.Exit(1)
		}
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())

		renderSubject(result.A, now)
		renderSubject(result.B, now)
		renderComparison(result)
	},
}
