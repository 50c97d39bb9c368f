package timeparse

import "testing"

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"noon literal", "noon", "12:00:00"},
		{"midnight literal", "midnight", "00:00:00"},
		{"simple pm", "2pm", "14:00:00"},
		{"pm with space", "2 pm", "14:00:00"},
		{"12pm stays noon", "12pm", "12:00:00"},
		{"12am is midnight", "12am", "00:00:00"},
		{"simple am", "9am", "09:00:00"},
		{"uppercase", "6PM", "18:00:00"},
		{"colon form", "14:30", "14:30:00"},
		{"colon with seconds", "14:30:45", "14:30:00"},
		{"single digit hour colon", "8:05", "08:05:00"},
		{"bare hour", "14", "14:00:00"},
		{"bare single digit", "7", "07:00:00"},
		{"hour clamped", "99", "23:00:00"},
		{"minute clamped", "10:99", "10:59:00"},
		{"pm hour clamped", "13pm", "23:00:00"},
		{"garbage falls back", "garbage", "09:00:00"},
		{"empty falls back", "", "09:00:00"},
		{"mixed junk with pm", "around 2-ish pm", "09:00:00"},
		{"non-numeric hour with colon", "ab:30", "09:00:00"},
		{"quoted input", `"2pm"`, "14:00:00"},
		{"whitespace trimmed", "  noon  ", "12:00:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseTimeOfDay(tc.in).String(); got != tc.want {
				t.Errorf("ParseTimeOfDay(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseTimeOfDayIdempotent(t *testing.T) {
	// Feeding the canonical output back in must not change it.
	for _, in := range []string{"2pm", "noon", "14:30", "garbage"} {
		first := ParseTimeOfDay(in).String()
		second := ParseTimeOfDay(first).String()
		if first != second {
			t.Errorf("ParseTimeOfDay not idempotent for %q: %s then %s", in, first, second)
		}
	}
}
