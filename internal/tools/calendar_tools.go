package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gatherhq/gather/internal/calendar"
	"github.com/gatherhq/gather/internal/timeparse"
	"github.com/gatherhq/gather/internal/toolargs"
)

// displaySlotLimit caps how many free slots a single answer lists.
// The finder itself scans for up to ten; showing five keeps the
// observation short enough for the model to relay verbatim.
const displaySlotLimit = 5

var (
	checkAvailabilitySpec = toolargs.Spec{
		Tool: "check_availability",
		Fields: []toolargs.Field{
			{Name: "user_id"},
			{Name: "date_iso", Required: true, Format: "YYYY-MM-DDTHH:MM:SS"},
		},
	}

	getEventsSpec = toolargs.Spec{
		Tool: "get_calendar_events",
		Fields: []toolargs.Field{
			{Name: "user_id"},
			{Name: "start_date"},
			{Name: "end_date"},
		},
	}

	findTimesSpec = toolargs.Spec{
		Tool: "find_available_times",
		Fields: []toolargs.Field{
			{Name: "user_id"},
			{Name: "start_date", Required: true, Format: "YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS"},
			{Name: "end_date", Required: true, Format: "YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS"},
			{Name: "duration_minutes", Default: "60", Numeric: true},
		},
	}

	createEventSpec = toolargs.Spec{
		Tool: "create_calendar_event",
		Fields: []toolargs.Field{
			{Name: "user_id"},
			{Name: "title", Required: true, Format: "short event title"},
			{Name: "start_iso", Required: true, Format: "YYYY-MM-DDTHH:MM:SS"},
			{Name: "end_iso", Required: true, Format: "YYYY-MM-DDTHH:MM:SS"},
			{Name: "description"},
			{Name: "location"},
		},
	}
)

func (r *Registry) registerCalendarTools() {
	r.Register(&Tool{
		Name:        "check_availability",
		Description: "Check if a user is free on a given ISO date. This is a day-level check.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"description": "User to check (defaults to the session user)",
				},
				"date_iso": map[string]any{
					"type":        "string",
					"description": "The date as YYYY-MM-DDTHH:MM:SS (use parse_date first for natural language)",
				},
			},
			"required": []string{"date_iso"},
		},
		Handler: r.handleCheckAvailability,
	})

	r.Register(&Tool{
		Name:        "get_calendar_events",
		Description: "List a user's calendar events, optionally limited to a date range.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"description": "User whose calendar to read (defaults to the session user)",
				},
				"start_date": map[string]any{
					"type":        "string",
					"description": "Range start, YYYY-MM-DD or full ISO (optional)",
				},
				"end_date": map[string]any{
					"type":        "string",
					"description": "Range end, YYYY-MM-DD or full ISO (optional)",
				},
			},
		},
		Handler: r.handleGetEvents,
	})

	r.Register(&Tool{
		Name: "find_available_times",
		Description: "Find open time slots of a given duration between two dates, " +
			"avoiding existing calendar events.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"description": "User whose calendar to search (defaults to the session user)",
				},
				"start_date": map[string]any{
					"type":        "string",
					"description": "Range start, YYYY-MM-DD or full ISO",
				},
				"end_date": map[string]any{
					"type":        "string",
					"description": "Range end, YYYY-MM-DD or full ISO",
				},
				"duration_minutes": map[string]any{
					"type":        "string",
					"description": "Desired slot length in minutes (default 60)",
				},
			},
			"required": []string{"start_date", "end_date"},
		},
		Handler: r.handleFindAvailableTimes,
	})

	r.Register(&Tool{
		Name: "create_calendar_event",
		Description: "Create a calendar event. Only call this after the user has explicitly " +
			"confirmed the event details.",
		RequiresConfirmation: true,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"user_id": map[string]any{
					"type":        "string",
					"description": "User whose calendar to write (defaults to the session user)",
				},
				"title": map[string]any{
					"type":        "string",
					"description": "Event title",
				},
				"start_iso": map[string]any{
					"type":        "string",
					"description": "Event start as YYYY-MM-DDTHH:MM:SS",
				},
				"end_iso": map[string]any{
					"type":        "string",
					"description": "Event end as YYYY-MM-DDTHH:MM:SS",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Optional longer description",
				},
				"location": map[string]any{
					"type":        "string",
					"description": "Optional location",
				},
			},
			"required": []string{"title", "start_iso", "end_iso"},
		},
		Handler: r.handleCreateEvent,
	})
}

func (r *Registry) handleCheckAvailability(ctx context.Context, args map[string]string) string {
	args, errMsg := normalize(checkAvailabilitySpec, args)
	if errMsg != "" {
		return errMsg
	}

	user := r.user(args)
	dateISO := args["date_iso"]
	day, _, _ := strings.Cut(dateISO, "T")

	if r.calendar.IsFree(user, dateISO) {
		return fmt.Sprintf("%s is free on %s", user, day)
	}
	return fmt.Sprintf("%s is busy on %s", user, day)
}

func (r *Registry) handleGetEvents(ctx context.Context, args map[string]string) string {
	args, errMsg := normalize(getEventsSpec, args)
	if errMsg != "" {
		return errMsg
	}

	user := r.user(args)
	var events []calendar.Event
	if args["start_date"] != "" && args["end_date"] != "" {
		start, msg := r.resolveRangeBound(args["start_date"], "00:00:00")
		if msg != "" {
			return msg
		}
		end, msg := r.resolveRangeBound(args["end_date"], "23:59:59")
		if msg != "" {
			return msg
		}
		events = r.calendar.EventsBetween(user, start, end)
	} else {
		events = r.calendar.Events(user)
	}

	if len(events) == 0 {
		return fmt.Sprintf("No events found on %s's calendar.", user)
	}

	var b strings.Builder
	for i, ev := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s to %s", ev.Title, ev.Start, ev.End)
	}
	return b.String()
}

func (r *Registry) handleFindAvailableTimes(ctx context.Context, args map[string]string) string {
	args, errMsg := normalize(findTimesSpec, args)
	if errMsg != "" {
		return errMsg
	}

	user := r.user(args)
	start, msg := r.resolveRangeBound(args["start_date"], "00:00:00")
	if msg != "" {
		return msg
	}
	end, msg := r.resolveRangeBound(args["end_date"], "23:59:59")
	if msg != "" {
		return msg
	}

	duration, err := strconv.Atoi(args["duration_minutes"])
	if err != nil || duration <= 0 {
		duration = 60
	}

	slots := calendar.FindFreeSlots(r.calendar.BusyIntervals(user), start, end, duration)
	if len(slots) == 0 {
		return fmt.Sprintf("No open %d-minute slots between %s and %s.", duration, start, end)
	}
	if len(slots) > displaySlotLimit {
		slots = slots[:displaySlotLimit]
	}

	var b strings.Builder
	for i, slot := range slots {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Available: %s to %s", slot.Start, slot.End)
	}
	return b.String()
}

func (r *Registry) handleCreateEvent(ctx context.Context, args map[string]string) string {
	args, errMsg := normalize(createEventSpec, args)
	if errMsg != "" {
		return errMsg
	}

	user := r.user(args)
	ev, err := r.calendar.Create(user, calendar.Event{
		Title:       args["title"],
		Start:       args["start_iso"],
		End:         args["end_iso"],
		Description: args["description"],
		Location:    args["location"],
	})
	if err != nil {
		return fmt.Sprintf("Could not create event: %s", err)
	}

	return fmt.Sprintf("Event created: %q from %s to %s (id %s)", ev.Title, ev.Start, ev.End, ev.ID)
}

// resolveRangeBound turns a range bound into a full canonical
// timestamp. ISO inputs pass through (bare dates get the given
// boundary time appended); anything else goes through the
// natural-language resolver. The second return value is a user-facing
// failure message, empty on success.
func (r *Registry) resolveRangeBound(text, boundaryTime string) (string, string) {
	text = strings.TrimSpace(text)
	if _, err := time.Parse(timeparse.TimestampLayout, text); err == nil {
		return text, ""
	}
	if _, err := time.Parse("2006-01-02", text); err == nil {
		return text + "T" + boundaryTime, ""
	}

	resolved, err := timeparse.ResolveDate(text, boundaryTime, r.now())
	if err != nil {
		return "", err.Error()
	}
	return resolved, ""
}
