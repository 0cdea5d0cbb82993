package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendarapi "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
)

func newTestConnector(t *testing.T, handler http.Handler, cfg Config) *Connector {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := calendarapi.NewService(context.Background(),
		option.WithoutAuthentication(),
		option.WithEndpoint(srv.URL+"/calendar/v3/"))
	require.NoError(t, err)

	return NewWithService(svc, cfg)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestFetchRecent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		assert.NotEmpty(t, r.URL.Query().Get("timeMin"))
		assert.NotEmpty(t, r.URL.Query().Get("timeMax"))
		writeJSON(t, w, &calendarapi.Events{
			Items: []*calendarapi.Event{
				{
					Id:          "ev-old",
					Summary:     "Planning session",
					Description: "Discuss roadmap.",
					Start:       &calendarapi.EventDateTime{DateTime: "2026-02-01T09:00:00Z"},
					Organizer:   &calendarapi.EventOrganizer{Email: "alice@example.com"},
					Attendees: []*calendarapi.EventAttendee{
						{Email: "bob@example.com"},
					},
				},
				{
					Id:      "ev-new",
					Summary: "Retro",
					Start:   &calendarapi.EventDateTime{DateTime: "2026-02-03T15:00:00Z"},
				},
			},
		})
	})

	conn := newTestConnector(t, mux, DefaultConfig())
	defer conn.Close()

	msgs, err := conn.FetchRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	// Newest start time first.
	assert.Equal(t, "ev-new", msgs[0].ID)
	assert.Equal(t, domain.SourceCalendar, msgs[0].Source)

	assert.Equal(t, "ev-old", msgs[1].ID)
	assert.Equal(t, "Planning session", msgs[1].Subject)
	assert.Equal(t, "Planning session\nDiscuss roadmap.", msgs[1].Body)
	assert.Equal(t, "alice@example.com", msgs[1].Sender)
	assert.Equal(t, []string{"bob@example.com"}, msgs[1].Recipients)
	assert.Equal(t, time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC), msgs[1].Timestamp)
}

func TestFetchRecent_SkipsCancelledAndEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, &calendarapi.Events{
			Items: []*calendarapi.Event{
				{Id: "cancelled", Summary: "Gone", Status: "cancelled"},
				{Id: "empty"},
				{Id: "kept", Summary: "Standup"},
			},
		})
	})

	conn := newTestConnector(t, mux, DefaultConfig())
	defer conn.Close()

	msgs, err := conn.FetchRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "kept", msgs[0].ID)
}

func TestFetchRecent_ListError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/calendar/v3/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403}}`, http.StatusForbidden)
	})

	conn := newTestConnector(t, mux, DefaultConfig())
	defer conn.Close()

	_, err := conn.FetchRecent(context.Background(), 1)
	require.Error(t, err)
}

func TestEventStart_AllDayEvent(t *testing.T) {
	got := eventStart(&calendarapi.Event{
		Start: &calendarapi.EventDateTime{Date: "2026-02-05"},
	})

	assert.Equal(t, time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC), got)
}
