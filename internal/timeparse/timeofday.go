// Package timeparse converts the free-text date and time expressions
// users type ("this Friday at 6pm", "noon", "tomorrow") into canonical
// timestamps. All parsing is relative to an injected reference time, so
// resolution is deterministic and testable.
package timeparse

import (
	"fmt"
	"strings"
)

// DefaultTimeOfDay is the fallback used whenever a time expression
// cannot be understood. Nine in the morning is a safe default for
// scheduling requests.
var DefaultTimeOfDay = TimeOfDay{Hour: 9}

// TimeOfDay is a canonical 24-hour wall-clock time.
type TimeOfDay struct {
	Hour   int // 0-23
	Minute int // 0-59
	Second int // 0-59
}

// String serializes as zero-padded 24-hour HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// ParseTimeOfDay converts a free-text time expression into a TimeOfDay.
// It is a total function: any input it cannot understand yields
// [DefaultTimeOfDay] rather than an error.
//
// Recognized forms, checked in order: "noon" and "midnight" literals,
// 12-hour clock with an am/pm suffix ("2pm", "11 am"), colon-separated
// 24-hour clock ("14:30"), and a bare hour ("14"). Out-of-range values
// are clamped, not rejected.
func ParseTimeOfDay(text string) TimeOfDay {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.Trim(s, `"'`)

	switch s {
	case "noon":
		return TimeOfDay{Hour: 12}
	case "midnight":
		return TimeOfDay{}
	}

	if suffix := meridiemSuffix(s); suffix != "" {
		digits := strings.TrimSuffix(s, suffix)
		digits = strings.TrimRight(digits, " :")
		if !allDigits(digits) {
			return DefaultTimeOfDay
		}
		hour := atoi(digits)
		if suffix == "pm" && hour != 12 {
			hour += 12
		}
		if suffix == "am" && hour == 12 {
			hour = 0
		}
		return TimeOfDay{Hour: clamp(hour, 23)}
	}

	if strings.Contains(s, ":") {
		parts := strings.SplitN(s, ":", 3)
		if !allDigits(parts[0]) {
			return DefaultTimeOfDay
		}
		hour := clamp(atoi(parts[0]), 23)
		minute := 0
		if len(parts) > 1 && allDigits(parts[1]) {
			minute = clamp(atoi(parts[1]), 59)
		}
		return TimeOfDay{Hour: hour, Minute: minute}
	}

	if allDigits(s) && s != "" {
		return TimeOfDay{Hour: clamp(atoi(s), 23)}
	}

	return DefaultTimeOfDay
}

// meridiemSuffix returns "am" or "pm" when the string ends with one,
// otherwise "".
func meridiemSuffix(s string) string {
	if strings.HasSuffix(s, "am") {
		return "am"
	}
	if strings.HasSuffix(s, "pm") {
		return "pm"
	}
	return ""
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// atoi converts an all-digit string. Callers check allDigits first.
func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// clamp forces out-of-range values down to max rather than failing.
func clamp(v, max int) int {
	if v > max {
		return max
	}
	return v
}
