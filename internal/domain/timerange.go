package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange is the symbolic activity window requested by a caller
type TimeRange string

const (
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// DefaultTimeRange is used when a request does not name a range
const DefaultTimeRange = TimeRangeWeek

var timeRangeDays = map[TimeRange]int{
	TimeRangeDay:   1,
	TimeRangeWeek:  7,
	TimeRangeMonth: 30,
	TimeRangeYear:  365,
}

// TimeRanges lists every supported range in ascending length
func TimeRanges() []TimeRange {
	return []TimeRange{TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear}
}

// TimeRangeNames returns the supported ranges as a comma separated list
func TimeRangeNames() string {
	names := make([]string, 0, len(timeRangeDays))
	for _, tr := range TimeRanges() {
		names = append(names, string(tr))
	}
	return strings.Join(names, ", ")
}

// ParseTimeRange parses a range symbol. An empty string yields DefaultTimeRange.
func ParseTimeRange(s string) (TimeRange, error) {
	if s == "" {
		return DefaultTimeRange, nil
	}
	tr := TimeRange(strings.ToLower(strings.TrimSpace(s)))
	if !tr.Valid() {
		return "", fmt.Errorf("invalid time range %q: must be one of %s", s, TimeRangeNames())
	}
	return tr, nil
}

// Valid reports whether tr is a known range
func (tr TimeRange) Valid() bool {
	_, ok := timeRangeDays[tr]
	return ok
}

// Duration returns the length of the window selected by tr
func (tr TimeRange) Duration() time.Duration {
	return time.Duration(timeRangeDays[tr]) * 24 * time.Hour
}

// Window is a half-open interval [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// Resolve maps tr to a concrete window ending at now.
// Unknown ranges resolve to the default range.
func (tr TimeRange) Resolve(now time.Time) Window {
	if !tr.Valid() {
		tr = DefaultTimeRange
	}
	return Window{
		Start: now.Add(-tr.Duration()),
		End:   now,
	}
}
