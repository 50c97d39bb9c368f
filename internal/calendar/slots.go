package calendar

import (
	"time"

	"github.com/gatherhq/gather/internal/timeparse"
)

// maxFreeSlots caps how many open slots a single search returns.
const maxFreeSlots = 10

// Interval is a half-open [Start, End) time range in canonical
// YYYY-MM-DDTHH:MM:SS form. It describes busy time when used as input
// to FindFreeSlots and free time in its output.
type Interval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FindFreeSlots walks candidate start times from rangeStart in hourly
// increments and collects up to ten duration-length slots that fit
// inside the range without overlapping any busy interval. Busy
// intervals are treated as half-open, so a slot may begin exactly when
// a busy interval ends.
//
// Malformed timestamps anywhere in the input yield an empty result,
// never an error; callers must treat "no slots" as a valid outcome.
func FindFreeSlots(busy []Interval, rangeStart, rangeEnd string, durationMinutes int) []Interval {
	start, err := time.Parse(timeparse.TimestampLayout, rangeStart)
	if err != nil {
		return nil
	}
	end, err := time.Parse(timeparse.TimestampLayout, rangeEnd)
	if err != nil {
		return nil
	}
	if durationMinutes <= 0 {
		return nil
	}
	duration := time.Duration(durationMinutes) * time.Minute

	type span struct{ start, end time.Time }
	spans := make([]span, 0, len(busy))
	for _, b := range busy {
		bs, err := time.Parse(timeparse.TimestampLayout, b.Start)
		if err != nil {
			return nil
		}
		be, err := time.Parse(timeparse.TimestampLayout, b.End)
		if err != nil {
			return nil
		}
		spans = append(spans, span{bs, be})
	}

	var free []Interval
	for candidate := start; candidate.Before(end) && len(free) < maxFreeSlots; candidate = candidate.Add(time.Hour) {
		candidateEnd := candidate.Add(duration)
		if candidateEnd.After(end) {
			break
		}

		open := true
		for _, b := range spans {
			if candidateEnd.After(b.start) && candidate.Before(b.end) {
				open = false
				break
			}
		}
		if open {
			free = append(free, Interval{
				Start: candidate.Format(timeparse.TimestampLayout),
				End:   candidateEnd.Format(timeparse.TimestampLayout),
			})
		}
	}
	return free
}
