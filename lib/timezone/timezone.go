package timezone

import (
	"math"
	"time"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Madrid")
	if err != nil {
		panic(err)
	}
}

// force the timezone to the one the race is judged in, otherwise a
// server in another region will disagree with the participants about
// which calendar day a film was watched on, which disturbs streak and
// weekly-window math based on <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}

// Day truncates a timestamp to midnight of the calendar day it falls on.
func Day(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}

// DaysBetween returns whole calendar days from a to b,
// negative if b is before a. Madrid observes DST, so the
// midnight-to-midnight interval can be 23h or 25h; rounding to the
// nearest day keeps the count in calendar days.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Day(b).Sub(Day(a)).Hours() / 24))
}
