package toolargs

import (
	"errors"
	"strings"
	"testing"
)

var slotSpec = Spec{
	Tool: "find_available_times",
	Fields: []Field{
		{Name: "user_id"},
		{Name: "start_date", Required: true, Format: "YYYY-MM-DD"},
		{Name: "end_date", Required: true, Format: "YYYY-MM-DD"},
		{Name: "duration_minutes", Default: "60", Numeric: true},
	},
}

var availabilitySpec = Spec{
	Tool: "check_availability",
	Fields: []Field{
		{Name: "user_id"},
		{Name: "date_iso", Required: true, Format: "YYYY-MM-DDTHH:MM:SS"},
	},
}

func TestNormalizeCommaPositional(t *testing.T) {
	// The whole argument set jammed into the first field as a comma
	// list, quotes and all.
	got, err := availabilitySpec.Normalize(map[string]string{
		"user_id": `me, "2025-12-03T18:00:00"`,
	})
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got["user_id"] != "me" {
		t.Errorf("user_id = %q, want me", got["user_id"])
	}
	if got["date_iso"] != "2025-12-03T18:00:00" {
		t.Errorf("date_iso = %q, want 2025-12-03T18:00:00", got["date_iso"])
	}
}

func TestNormalizeJSONObject(t *testing.T) {
	got, err := slotSpec.Normalize(map[string]string{
		"user_id": `{"user_id": "alice", "start_date": "2025-12-01", "end_date": "2025-12-02", "duration_minutes": 30}`,
	})
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	want := map[string]string{
		"user_id":          "alice",
		"start_date":       "2025-12-01",
		"end_date":         "2025-12-02",
		"duration_minutes": "30",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestNormalizeJSONEmptyOptional(t *testing.T) {
	// Empty-string optionals in the JSON survive as empty, then take
	// their defaults.
	got, err := slotSpec.Normalize(map[string]string{
		"user_id": `{"user_id": "", "start_date": "2025-12-01", "end_date": "2025-12-02"}`,
	})
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got["user_id"] != "" {
		t.Errorf("user_id = %q, want empty", got["user_id"])
	}
	if got["duration_minutes"] != "60" {
		t.Errorf("duration_minutes = %q, want default 60", got["duration_minutes"])
	}
}

func TestNormalizeKeyValuePairs(t *testing.T) {
	got, err := slotSpec.Normalize(map[string]string{
		"user_id": `start_date="2025-12-01" end_date="2025-12-02" duration_minutes="45 minutes"`,
	})
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got["start_date"] != "2025-12-01" || got["end_date"] != "2025-12-02" {
		t.Errorf("dates = %q / %q", got["start_date"], got["end_date"])
	}
	if got["duration_minutes"] != "45" {
		t.Errorf("duration_minutes = %q, want digits extracted 45", got["duration_minutes"])
	}
	if got["user_id"] != "" {
		t.Errorf("user_id = %q, want empty (not among the pairs)", got["user_id"])
	}
}

func TestNormalizeWellFormedPassthrough(t *testing.T) {
	got, err := availabilitySpec.Normalize(map[string]string{
		"user_id":  "bob",
		"date_iso": "2025-12-03T09:00:00",
	})
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got["user_id"] != "bob" || got["date_iso"] != "2025-12-03T09:00:00" {
		t.Errorf("passthrough mangled: %v", got)
	}
}

func TestNormalizeStrayPrefixCleanup(t *testing.T) {
	got, err := availabilitySpec.Normalize(map[string]string{
		"user_id":  `user_id="carol"`,
		"date_iso": `'2025-12-03T09:00:00'`,
	})
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got["user_id"] != "carol" {
		t.Errorf("user_id = %q, want prefix and quotes stripped", got["user_id"])
	}
	if got["date_iso"] != "2025-12-03T09:00:00" {
		t.Errorf("date_iso = %q, want quotes stripped", got["date_iso"])
	}
}

func TestNormalizeMissingRequired(t *testing.T) {
	_, err := slotSpec.Normalize(map[string]string{
		"user_id":  "me",
		"end_date": "2025-12-02",
	})
	if err == nil {
		t.Fatal("Normalize should fail without start_date")
	}

	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("error type %T, want *MissingFieldError", err)
	}
	if missing.Field != "start_date" {
		t.Errorf("Field = %q, want start_date", missing.Field)
	}
	if !strings.Contains(err.Error(), "start_date") || !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Errorf("error text should name field and format: %s", err)
	}
}

func TestNormalizeMalformedJSONFallsThrough(t *testing.T) {
	// A brace-prefixed but broken payload with commas should fall
	// through to positional splitting rather than erroring out.
	got, err := availabilitySpec.Normalize(map[string]string{
		"user_id": `{me, 2025-12-03T18:00:00`,
	})
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got["user_id"] != "{me" && got["user_id"] != "me" {
		t.Errorf("user_id = %q", got["user_id"])
	}
	if got["date_iso"] != "2025-12-03T18:00:00" {
		t.Errorf("date_iso = %q, want positional recovery", got["date_iso"])
	}
}

func TestNormalizeNumericFallback(t *testing.T) {
	got, err := slotSpec.Normalize(map[string]string{
		"start_date":       "2025-12-01",
		"end_date":         "2025-12-02",
		"duration_minutes": "an hour or so",
	})
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if got["duration_minutes"] != "60" {
		t.Errorf("duration_minutes = %q, want default 60 when no digits", got["duration_minutes"])
	}
}

func TestNormalizeFewerPartsThanFields(t *testing.T) {
	got, err := slotSpec.Normalize(map[string]string{
		"user_id": "me, 2025-12-01",
	})
	// end_date stays empty: required, so this must error — but the
	// recovered fields are still populated.
	if err == nil {
		t.Fatal("Normalize should report missing end_date")
	}
	if got["user_id"] != "me" || got["start_date"] != "2025-12-01" {
		t.Errorf("partial recovery wrong: %v", got)
	}
	if got["duration_minutes"] != "60" {
		t.Errorf("duration_minutes = %q, want default", got["duration_minutes"])
	}
}
