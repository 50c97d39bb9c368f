package timeparse

import (
	"errors"
	"testing"
	"time"
)

// wednesday is the reference "now" used across resolver tests:
// Wednesday 2025-11-19 10:00:00.
var wednesday = time.Date(2025, 11, 19, 10, 0, 0, 0, time.UTC)

func TestResolveDateRelative(t *testing.T) {
	tests := []struct {
		name        string
		expr        string
		defaultTime string
		want        string
	}{
		{"today", "today", "", "2025-11-19T09:00:00"},
		{"tomorrow", "tomorrow", "", "2025-11-20T09:00:00"},
		{"tomorrow with time", "tomorrow", "14:00:00", "2025-11-20T14:00:00"},
		{"tonight defaults to evening", "tonight", "", "2025-11-20T18:00:00"},
		{"tonight with explicit default", "tonight", "20:00:00", "2025-11-20T20:00:00"},
		{"tonight with at clause", "tonight at 9pm", "", "2025-11-20T21:00:00"},
		{"weekend", "this weekend", "", "2025-11-22T09:00:00"},
		{"bare friday", "Friday", "18:00:00", "2025-11-21T18:00:00"},
		{"this friday", "this Friday", "", "2025-11-21T09:00:00"},
		{"next friday", "next Friday", "", "2025-11-28T09:00:00"},
		{"friday at 6pm", "Friday at 6pm", "", "2025-11-21T18:00:00"},
		{"monday rolls forward", "Monday", "", "2025-11-24T09:00:00"},
		// Monday already rolled into next week from a Wednesday, so
		// "next" adds nothing more.
		{"next monday", "next Monday", "", "2025-11-24T09:00:00"},
		{"default time hh:mm gets seconds", "Friday", "18:00", "2025-11-21T18:00:00"},
		{"saturday at noon", "Saturday at noon", "", "2025-11-22T12:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveDate(tc.expr, tc.defaultTime, wednesday)
			if err != nil {
				t.Fatalf("ResolveDate(%q, %q) error: %v", tc.expr, tc.defaultTime, err)
			}
			if got != tc.want {
				t.Errorf("ResolveDate(%q, %q) = %s, want %s", tc.expr, tc.defaultTime, got, tc.want)
			}
		})
	}
}

// TestResolveDateWeekdayGrid checks every weekday under every modifier
// against the offset rules, from every possible "now" weekday.
func TestResolveDateWeekdayGrid(t *testing.T) {
	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

	for nowOffset := 0; nowOffset < 7; nowOffset++ {
		now := wednesday.AddDate(0, 0, nowOffset)
		nowIdx := (int(now.Weekday()) + 6) % 7

		for dayIdx, name := range names {
			for _, modifier := range []string{"", "this ", "next "} {
				expr := modifier + name
				got, err := ResolveDate(expr, "", now)
				if err != nil {
					t.Fatalf("ResolveDate(%q) error: %v", expr, err)
				}
				resolved, err := time.Parse(TimestampLayout, got)
				if err != nil {
					t.Fatalf("ResolveDate(%q) returned unparseable %q", expr, got)
				}

				if gotIdx := (int(resolved.Weekday()) + 6) % 7; gotIdx != dayIdx {
					t.Errorf("ResolveDate(%q) from %s landed on %s", expr, now.Weekday(), resolved.Weekday())
				}

				delta := dayIdx - nowIdx
				want := delta
				switch {
				case delta < 0:
					want = delta + 7
				case delta == 0:
					if modifier == "next " {
						want = 7
					}
				default:
					if modifier == "next " {
						want = delta + 7
					}
				}
				wantDate := now.AddDate(0, 0, want)
				if resolved.Year() != wantDate.Year() || resolved.YearDay() != wantDate.YearDay() {
					t.Errorf("ResolveDate(%q) from %s = %s, want offset %d days",
						expr, now.Format("2006-01-02"), got, want)
				}
			}
		}
	}
}

// "this Friday" asked on a Friday resolves to today, not next week.
// Only "next" skips ahead.
func TestResolveDateSameWeekdayToday(t *testing.T) {
	friday := time.Date(2025, 11, 21, 10, 0, 0, 0, time.UTC)

	got, err := ResolveDate("this Friday", "", friday)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-11-21T09:00:00" {
		t.Errorf("this Friday on a Friday = %s, want today", got)
	}

	got, err = ResolveDate("next Friday", "", friday)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-11-28T09:00:00" {
		t.Errorf("next Friday on a Friday = %s, want +7 days", got)
	}
}

func TestResolveDateWeekendOnSaturday(t *testing.T) {
	saturday := time.Date(2025, 11, 22, 10, 0, 0, 0, time.UTC)

	got, err := ResolveDate("the weekend", "", saturday)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-11-29T09:00:00" {
		t.Errorf("bare weekend on a Saturday = %s, want next Saturday", got)
	}

	got, err = ResolveDate("this weekend", "", saturday)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-11-22T09:00:00" {
		t.Errorf("this weekend on a Saturday = %s, want today", got)
	}
}

func TestResolveDateExplicit(t *testing.T) {
	tests := []struct {
		name        string
		expr        string
		defaultTime string
		want        string
	}{
		{"iso round trip", "2025-12-03T18:00:00", "", "2025-12-03T18:00:00"},
		{"iso without seconds", "2025-12-03T18:00", "", "2025-12-03T18:00:00"},
		{"bare date takes default", "2025-12-03", "14:00:00", "2025-12-03T14:00:00"},
		{"month day year", "June 5, 2026", "", "2026-06-05T09:00:00"},
		{"month day year with time", "June 5, 2026 18:00", "", "2026-06-05T18:00:00"},
		{"lowercase month", "june 5, 2026", "", "2026-06-05T09:00:00"},
		{"embedded time beats default", "2025-12-03T07:30:00", "18:00:00", "2025-12-03T07:30:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveDate(tc.expr, tc.defaultTime, wednesday)
			if err != nil {
				t.Fatalf("ResolveDate(%q) error: %v", tc.expr, err)
			}
			if got != tc.want {
				t.Errorf("ResolveDate(%q, %q) = %s, want %s", tc.expr, tc.defaultTime, got, tc.want)
			}
		})
	}
}

func TestResolveDateArgumentRecovery(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"trailing comma time", "Friday, 18:00:00", "2025-11-21T18:00:00"},
		{"key value encoding", `date_description="Friday" default_time="18:00:00"`, "2025-11-21T18:00:00"},
		{"comma date survives", "June 5, 2026", "2026-06-05T09:00:00"},
		{"comma date with trailing time survives", "June 5, 2026 18:00", "2026-06-05T18:00:00"},
		{"trailing meridiem time", "tomorrow, 2pm", "2025-11-20T14:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveDate(tc.expr, "", wednesday)
			if err != nil {
				t.Fatalf("ResolveDate(%q) error: %v", tc.expr, err)
			}
			if got != tc.want {
				t.Errorf("ResolveDate(%q) = %s, want %s", tc.expr, got, tc.want)
			}
		})
	}
}

func TestResolveDateUnparseable(t *testing.T) {
	for _, expr := range []string{"whenever", "the 5th of never", ""} {
		_, err := ResolveDate(expr, "", wednesday)
		if err == nil {
			t.Errorf("ResolveDate(%q) should fail", expr)
			continue
		}
		var ue *UnparseableError
		if !errors.As(err, &ue) {
			t.Errorf("ResolveDate(%q) error type %T, want *UnparseableError", expr, err)
		}
	}
}
