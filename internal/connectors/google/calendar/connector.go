// Package calendar fetches event descriptions via the Calendar REST API.
//
// Events around the current date are flattened to plain text records,
// so meeting notes and agendas become retrievable context.
package calendar

import (
	"context"
	"fmt"
	"time"

	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/custodia-labs/mailrag-cli/internal/connectors/google"
	"github.com/custodia-labs/mailrag-cli/internal/core/domain"
	"github.com/custodia-labs/mailrag-cli/internal/core/ports/driven"
)

// Ensure Connector implements the MailboxSource interface.
var _ driven.MailboxSource = (*Connector)(nil)

// Config holds Calendar connector configuration.
type Config struct {
	// CalendarID selects the calendar to read. Defaults to "primary".
	CalendarID string
	// LookbackDays bounds how far into the past events are fetched.
	LookbackDays int
	// LookaheadDays bounds how far into the future events are fetched.
	LookaheadDays int
	// MaxResults is the default fetch size when the caller does not
	// specify a limit.
	MaxResults int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CalendarID:    "primary",
		LookbackDays:  30,
		LookaheadDays: 30,
		MaxResults:    50,
	}
}

// Connector fetches events from a Google Calendar.
type Connector struct {
	svc     *calendarapi.Service
	limiter *google.RateLimiter
	cfg     Config
	now     func() time.Time
}

// New creates a Calendar connector authenticated via the token provider.
func New(ctx context.Context, provider driven.TokenProvider, cfg Config) (*Connector, error) {
	ts := google.NewTokenSource(ctx, provider)
	svc, err := google.NewCalendarService(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService creates a connector around an existing Calendar API client.
func NewWithService(svc *calendarapi.Service, cfg Config) *Connector {
	def := DefaultConfig()
	if cfg.CalendarID == "" {
		cfg.CalendarID = def.CalendarID
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = def.LookbackDays
	}
	if cfg.LookaheadDays <= 0 {
		cfg.LookaheadDays = def.LookaheadDays
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	return &Connector{
		svc:     svc,
		limiter: google.NewRateLimiter(google.ServiceCalendar),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Source identifies the documents this connector produces.
func (c *Connector) Source() domain.SourceKind {
	return domain.SourceCalendar
}

// FetchRecent returns up to limit events, newest start time first.
func (c *Connector) FetchRecent(ctx context.Context, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = int(c.cfg.MaxResults)
	}

	now := c.now()
	timeMin := now.AddDate(0, 0, -c.cfg.LookbackDays)
	timeMax := now.AddDate(0, 0, c.cfg.LookaheadDays)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.svc.Events.List(c.cfg.CalendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(int64(limit)).
		Context(ctx).Do()
	if err != nil {
		if google.IsRateLimited(err) {
			c.limiter.RecordRateLimitError(0)
		}
		return nil, fmt.Errorf("calendar: list events: %w", google.WrapError(err))
	}

	// The API orders ascending by start time; reverse for newest first.
	messages := make([]domain.Message, 0, len(resp.Items))
	for i := len(resp.Items) - 1; i >= 0; i-- {
		if msg, ok := toMessage(resp.Items[i]); ok {
			messages = append(messages, msg)
		}
	}

	return messages, nil
}

// Close releases resources. The Calendar client holds none.
func (c *Connector) Close() error {
	return nil
}
