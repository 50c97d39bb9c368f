// Package calendar provides the per-user calendar capability: a JSON
// file of events with day-level availability checks, range queries,
// event creation, free-slot search, and iCalendar export.
package calendar

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/gatherhq/gather/internal/storage"
	"github.com/gatherhq/gather/internal/timeparse"
)

// Event is one calendar entry. Start and End are naive canonical
// timestamps (YYYY-MM-DDTHH:MM:SS); the store's configured zone is
// applied only when an event leaves the system (ICS export).
type Event struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// calendarFile is the persisted document shape.
type calendarFile struct {
	Events []Event `json:"events"`
}

// Store manages per-user calendar files.
type Store struct {
	dir    *storage.Dir
	loc    *time.Location
	logger *slog.Logger
}

// NewStore creates a calendar store over the given data directory.
// loc is the single fixed zone applied at the write boundary; nil
// means UTC.
func NewStore(dir *storage.Dir, loc *time.Location, logger *slog.Logger) *Store {
	if loc == nil {
		loc = time.UTC
	}
	return &Store{dir: dir, loc: loc, logger: logger}
}

func (s *Store) path(userID string) string {
	return s.dir.UserPath(userID, "calendar.json")
}

func (s *Store) load(userID string) calendarFile {
	var f calendarFile
	if !s.dir.LoadJSON(s.path(userID), &f) {
		return calendarFile{}
	}
	return f
}

// Events returns all events for a user, oldest first as stored.
// A missing calendar is an empty calendar.
func (s *Store) Events(userID string) []Event {
	return s.load(userID).Events
}

// IsFree reports whether the user has no event touching the calendar
// day of dateISO. This is a naive day-level check: any event starting
// or ending on that day makes the user busy.
func (s *Store) IsFree(userID, dateISO string) bool {
	day, _, _ := strings.Cut(dateISO, "T")
	for _, ev := range s.Events(userID) {
		if strings.HasPrefix(ev.Start, day) || strings.HasPrefix(ev.End, day) {
			return false
		}
	}
	return true
}

// EventsBetween returns events overlapping [startISO, endISO). Events
// with timestamps that fail to parse are skipped.
func (s *Store) EventsBetween(userID, startISO, endISO string) []Event {
	start, err1 := time.Parse(timeparse.TimestampLayout, startISO)
	end, err2 := time.Parse(timeparse.TimestampLayout, endISO)
	if err1 != nil || err2 != nil {
		return nil
	}

	var out []Event
	for _, ev := range s.Events(userID) {
		evStart, err1 := time.Parse(timeparse.TimestampLayout, ev.Start)
		evEnd, err2 := time.Parse(timeparse.TimestampLayout, ev.End)
		if err1 != nil || err2 != nil {
			continue
		}
		if evEnd.After(start) && evStart.Before(end) {
			out = append(out, ev)
		}
	}
	return out
}

// Create appends an event to the user's calendar and returns it with
// its assigned ID. Timestamps must already be canonical; the store
// does no natural-language parsing.
func (s *Store) Create(userID string, ev Event) (Event, error) {
	if _, err := time.Parse(timeparse.TimestampLayout, ev.Start); err != nil {
		return Event{}, fmt.Errorf("invalid start time %q: %w", ev.Start, err)
	}
	if _, err := time.Parse(timeparse.TimestampLayout, ev.End); err != nil {
		return Event{}, fmt.Errorf("invalid end time %q: %w", ev.End, err)
	}

	ev.ID = uuid.NewString()
	ev.CreatedAt = time.Now().In(s.loc).Format(time.RFC3339)

	f := s.load(userID)
	f.Events = append(f.Events, ev)
	if err := s.dir.SaveJSON(s.path(userID), f); err != nil {
		return Event{}, fmt.Errorf("save calendar: %w", err)
	}

	s.logger.Info("calendar event created",
		"user", userID, "event", ev.ID, "title", ev.Title, "start", ev.Start)
	return ev, nil
}

// BusyIntervals returns the user's events as intervals for free-slot
// search.
func (s *Store) BusyIntervals(userID string) []Interval {
	events := s.Events(userID)
	out := make([]Interval, 0, len(events))
	for _, ev := range events {
		out = append(out, Interval{Start: ev.Start, End: ev.End})
	}
	return out
}

// ExportICS renders the user's calendar as an iCalendar document in
// the store's configured zone.
func (s *Store) ExportICS(userID string) (string, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//gather//calendar//EN")

	for _, ev := range s.Events(userID) {
		start, err1 := time.Parse(timeparse.TimestampLayout, ev.Start)
		end, err2 := time.Parse(timeparse.TimestampLayout, ev.End)
		if err1 != nil || err2 != nil {
			continue
		}

		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(time.Now().In(s.loc))
		ve.SetStartAt(inZone(start, s.loc))
		ve.SetEndAt(inZone(end, s.loc))
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
	}

	return cal.Serialize(), nil
}

// inZone reinterprets a naive timestamp in the store's zone.
func inZone(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}
