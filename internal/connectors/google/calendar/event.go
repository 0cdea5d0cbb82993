package calendar

import (
	"strings"
	"time"

	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

// toMessage converts a calendar event to the domain record. Cancelled
// events and events with no text at all are skipped.
func toMessage(event *calendarapi.Event) (domain.Message, bool) {
	if event == nil || event.Status == "cancelled" {
		return domain.Message{}, false
	}

	body := eventBody(event)
	if body == "" {
		return domain.Message{}, false
	}

	m := domain.Message{
		ID:        event.Id,
		Subject:   event.Summary,
		Body:      body,
		Source:    domain.SourceCalendar,
		Timestamp: eventStart(event),
	}

	if event.Organizer != nil {
		m.Sender = event.Organizer.Email
	}
	for _, attendee := range event.Attendees {
		if attendee.Email != "" {
			m.Recipients = append(m.Recipients, attendee.Email)
		}
	}

	return m, true
}

// eventBody flattens the event to retrievable text. The summary leads
// so short events without descriptions still carry signal.
func eventBody(event *calendarapi.Event) string {
	var parts []string
	if event.Summary != "" {
		parts = append(parts, event.Summary)
	}
	if event.Location != "" {
		parts = append(parts, "Location: "+event.Location)
	}
	if event.Description != "" {
		parts = append(parts, event.Description)
	}
	return strings.Join(parts, "\n")
}

// eventStart resolves the start time. All-day events carry a date
// without a time component.
func eventStart(event *calendarapi.Event) time.Time {
	if event.Start == nil {
		return time.Time{}
	}
	if event.Start.DateTime != "" {
		if ts, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
			return ts.UTC()
		}
	}
	if event.Start.Date != "" {
		if ts, err := time.Parse("2006-01-02", event.Start.Date); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}
