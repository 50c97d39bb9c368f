package timeparse

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the canonical serialization for resolved
// timestamps. No zone is carried; the calendar applies its configured
// zone at the write boundary.
const TimestampLayout = "2006-01-02T15:04:05"

// UnparseableError reports a date expression that matched no known
// pattern. Its message is written for the agent to relay to the user,
// naming the accepted formats.
type UnparseableError struct {
	Text string
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("could not understand date %q; try a weekday (\"Friday\", \"next Wednesday\"), "+
		"\"today\", \"tomorrow\", \"tonight\", \"this weekend\", or an explicit date like "+
		"\"2025-12-03\" or \"June 5, 2025\"", e.Text)
}

// dateKind classifies a free-text date expression.
type dateKind int

const (
	kindUnparseable dateKind = iota
	kindToday
	kindTomorrow
	kindTonight
	kindWeekend
	kindWeekday
	kindExplicit
)

// weekdayModifier distinguishes "next Friday" from "this Friday" or a
// bare "Friday". Only "next" changes resolution; "this" behaves like no
// modifier, which makes "this Friday" on a Friday resolve to today.
// That asymmetry is deliberate and matched by the tests.
type weekdayModifier int

const (
	modNone weekdayModifier = iota
	modThis
	modNext
)

// explicitFormats is the ordered list of absolute-date layouts tried
// against the expression text. First match wins. hasTime marks layouts
// that carry a time component, which then overrides the default time
// entirely.
var explicitFormats = []struct {
	layout  string
	hasTime bool
}{
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", false},
	{"January 2, 2006 15:04", true},
	{"January 2, 2006", false},
	{"Jan 2, 2006", false},
	{"January 2 2006", false},
}

// weekdayNames maps lowercase names to indexes with Monday=0, matching
// the arithmetic in resolveWeekday.
var weekdayNames = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// ResolveDate converts a natural-language date expression plus a
// default time into a canonical YYYY-MM-DDTHH:MM:SS timestamp relative
// to now.
//
// defaultTime may be empty (09:00:00 is assumed) or HH:MM (seconds are
// appended). If the expression itself carries a time — an "at 6pm"
// clause or an explicit timestamp — that wins over defaultTime.
//
// The upstream agent sometimes concatenates both arguments into the
// expression string; ResolveDate re-splits those encodings before
// parsing rather than failing.
func ResolveDate(expression, defaultTime string, now time.Time) (string, error) {
	expression, defaultTime = recoverArguments(expression, defaultTime)

	explicitDefault := strings.TrimSpace(defaultTime) != ""
	tod := normalizeDefaultTime(defaultTime)

	raw := strings.Trim(strings.TrimSpace(expression), `"'`)
	text := strings.ToLower(raw)
	if text == "" {
		return "", &UnparseableError{Text: expression}
	}

	kind, weekday, modifier, explicit, explicitHasTime := classify(text, raw)
	if kind == kindUnparseable {
		return "", &UnparseableError{Text: expression}
	}

	// Tonight defaults to evening unless the caller pinned a time.
	if kind == kindTonight && !explicitDefault {
		tod = TimeOfDay{Hour: 18}
	}

	// An "at <time>" clause inside the expression overrides everything.
	if kind != kindExplicit {
		if after, ok := splitAtClause(text); ok {
			tod = ParseTimeOfDay(after)
		}
	}

	var date time.Time
	switch kind {
	case kindToday:
		date = now
	case kindTomorrow, kindTonight:
		date = now.AddDate(0, 0, 1)
	case kindWeekend:
		date = now.AddDate(0, 0, daysUntilSaturday(now, modifier))
	case kindWeekday:
		date = now.AddDate(0, 0, weekdayOffset(now, weekday, modifier))
	case kindExplicit:
		date = explicit
		if explicitHasTime {
			tod = TimeOfDay{Hour: explicit.Hour(), Minute: explicit.Minute(), Second: explicit.Second()}
		}
	}

	resolved := time.Date(date.Year(), date.Month(), date.Day(),
		tod.Hour, tod.Minute, tod.Second, 0, time.UTC)
	return resolved.Format(TimestampLayout), nil
}

// recoverArguments re-splits an expression that arrived with the
// default time concatenated into it, either as key="value" pairs or as
// a trailing comma-separated time. Explicit dates like "June 5, 2026"
// also contain commas, so the trailing part only counts as a time when
// it looks like one.
func recoverArguments(expression, defaultTime string) (string, string) {
	if v, ok := extractQuotedValue(expression, "date_description"); ok {
		if t, ok := extractQuotedValue(expression, "default_time"); ok && defaultTime == "" {
			defaultTime = t
		}
		return v, defaultTime
	}

	if defaultTime == "" && strings.Contains(expression, ",") && !strings.Contains(expression, "=") {
		// A complete explicit date can itself contain a comma and a
		// time ("June 5, 2026 18:00"); the format table wins over
		// comma recovery.
		trimmed := strings.Trim(strings.TrimSpace(expression), `"'`)
		if _, _, ok := parseExplicit(trimmed); ok {
			return expression, defaultTime
		}

		i := strings.LastIndex(expression, ",")
		head, tail := expression[:i], strings.TrimSpace(expression[i+1:])
		tail = strings.Trim(tail, `"'`)
		if looksLikeTime(tail) {
			return head, tail
		}
	}

	return expression, defaultTime
}

// extractQuotedValue finds a name="value" pair anywhere in s.
func extractQuotedValue(s, name string) (string, bool) {
	i := strings.Index(s, name+"=")
	if i < 0 {
		return "", false
	}
	rest := s[i+len(name)+1:]
	if len(rest) == 0 || (rest[0] != '"' && rest[0] != '\'') {
		return "", false
	}
	quote := rest[0]
	end := strings.IndexByte(rest[1:], quote)
	if end < 0 {
		return "", false
	}
	return rest[1 : 1+end], true
}

// looksLikeTime reports whether s is plausibly a time-of-day rather
// than part of a date ("2026" in "June 5, 2026" is not).
func looksLikeTime(s string) bool {
	low := strings.ToLower(s)
	return strings.Contains(low, ":") ||
		strings.HasSuffix(low, "am") || strings.HasSuffix(low, "pm") ||
		low == "noon" || low == "midnight"
}

// normalizeDefaultTime fills in an absent default and appends seconds
// to a bare HH:MM before parsing.
func normalizeDefaultTime(s string) TimeOfDay {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTimeOfDay
	}
	if strings.Count(s, ":") == 1 {
		s += ":00"
	}
	return ParseTimeOfDay(s)
}

// classify maps an expression onto a date kind. Keyword and weekday
// checks use the lowercased text; explicit formats are tried against
// raw, the original-case trimmed text, because time.Parse matches the
// literal T in ISO layouts case-sensitively. Explicit formats are tried
// before weekday names so "Friday, June 5, 2026" never resolves as a
// relative weekday.
func classify(text, raw string) (dateKind, int, weekdayModifier, time.Time, bool) {
	switch {
	case strings.Contains(text, "tonight"):
		return kindTonight, 0, modNone, time.Time{}, false
	case text == "today":
		return kindToday, 0, modNone, time.Time{}, false
	case strings.Contains(text, "tomorrow"):
		return kindTomorrow, 0, modNone, time.Time{}, false
	case strings.Contains(text, "weekend"):
		return kindWeekend, 0, classifyModifier(text), time.Time{}, false
	}

	if t, hasTime, ok := parseExplicit(raw); ok {
		return kindExplicit, 0, modNone, t, hasTime
	}

	for i, name := range weekdayNames {
		if strings.Contains(text, name) {
			return kindWeekday, i, classifyModifier(text), time.Time{}, false
		}
	}

	return kindUnparseable, 0, modNone, time.Time{}, false
}

// parseExplicit tries the ordered absolute-date layouts. First match
// wins. Month names still match regardless of case; time.Parse only
// cares about case for literal layout characters.
func parseExplicit(text string) (time.Time, bool, bool) {
	for _, f := range explicitFormats {
		if t, err := time.Parse(f.layout, text); err == nil {
			return t, f.hasTime, true
		}
	}
	return time.Time{}, false, false
}

func classifyModifier(text string) weekdayModifier {
	if strings.Contains(text, "next") {
		return modNext
	}
	if strings.Contains(text, "this") {
		return modThis
	}
	return modNone
}

// splitAtClause finds a standalone "at" token and returns the text
// after it. "at" inside another word ("saturday") does not count.
func splitAtClause(text string) (string, bool) {
	fields := strings.Fields(text)
	for i, f := range fields {
		if f == "at" && i+1 < len(fields) {
			return strings.Join(fields[i+1:], " "), true
		}
	}
	return "", false
}

// mondayIndex converts Go's Sunday-based weekday to Monday=0.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// weekdayOffset computes days from now to the requested weekday.
// A negative delta always rolls into next week. When today is the
// requested day, only "next" skips a week; bare and "this" both mean
// today. A positive delta is taken as-is unless "next" adds a week.
func weekdayOffset(now time.Time, weekday int, modifier weekdayModifier) int {
	delta := weekday - mondayIndex(now.Weekday())
	switch {
	case delta < 0:
		return delta + 7
	case delta == 0:
		if modifier == modNext {
			return 7
		}
		return 0
	default:
		if modifier == modNext {
			return delta + 7
		}
		return delta
	}
}

// daysUntilSaturday resolves "this weekend" to the coming Saturday.
// On a Saturday, a bare "weekend" means the next one; saying "this"
// keeps it today.
func daysUntilSaturday(now time.Time, modifier weekdayModifier) int {
	delta := mondayIndex(time.Saturday) - mondayIndex(now.Weekday())
	if delta < 0 {
		delta += 7
	}
	if delta == 0 && modifier != modThis {
		return 7
	}
	return delta
}
