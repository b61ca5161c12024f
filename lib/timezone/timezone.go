package timezone

import (
	"math"
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Chicago")
	if err != nil {
		panic(err)
	}
}

// the registrar publishes everything in central time, scrape timestamps
// and "Last Updated" values are always rendered in this zone regardless
// of where the pipeline happens to run.
func Now() time.Time {
	return time.Now().In(Location)
}

// FromEpoch converts fractional unix seconds (the format scrape
// timestamps are archived in) into a time in Location.
func FromEpoch(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(math.Round(frac*1e6))*1e3).In(Location)
}

// ToEpoch is the inverse of FromEpoch with microsecond precision.
func ToEpoch(t time.Time) float64 {
	return float64(t.UnixMicro()) / 1e6
}
