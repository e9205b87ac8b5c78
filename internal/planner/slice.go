package planner

import (
	"fmt"
	"time"
)

// Granularity is the bisection level a slice sits at
type Granularity int

const (
	// GranularityRange is a multi-day window
	GranularityRange Granularity = iota
	// GranularityDay is a window longer than an hour, at most one day
	GranularityDay
	// GranularityHour is a one-hour window
	GranularityHour
	// GranularityCity is a one-hour window narrowed to a single city
	GranularityCity
)

func (g Granularity) String() string {
	switch g {
	case GranularityRange:
		return "range"
	case GranularityDay:
		return "day"
	case GranularityHour:
		return "hour"
	case GranularityCity:
		return "city"
	default:
		return fmt.Sprintf("granularity(%d)", int(g))
	}
}

// Slice is one fetch unit: a keyword over the half-open window [Start, End),
// optionally narrowed to a region and a city inside it.
// Slices are values; Region points at read-only tree data.
type Slice struct {
	Keyword string
	Start   time.Time
	End     time.Time
	Region  *Region
	City    *City
}

// Duration returns the length of the slice window
func (s Slice) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Granularity classifies the slice by window length and geography
func (s Slice) Granularity() Granularity {
	switch {
	case s.City != nil:
		return GranularityCity
	case s.Duration() > 24*time.Hour:
		return GranularityRange
	case s.Duration() > time.Hour:
		return GranularityDay
	default:
		return GranularityHour
	}
}

// String renders the slice for logs
func (s Slice) String() string {
	out := fmt.Sprintf("%s [%s, %s)", s.Keyword, s.Start.Format("2006-01-02T15:04"), s.End.Format("2006-01-02T15:04"))
	if s.Region != nil {
		out += " region=" + s.Region.Name
	}
	if s.City != nil {
		out += " city=" + s.City.Name
	}
	return out
}
