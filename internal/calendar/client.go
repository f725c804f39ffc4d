// Package calendar mirrors tasks with due dates into Google Calendar.
// Event IDs are stored on the task record; the reminder clock never
// depends on this package.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"smarttasker/internal/model"
)

// Client wraps the Google Calendar API for a single connected account.
type Client struct {
	svc        *gcal.Service
	logger     *slog.Logger
	calendarID string
}

// oauthConfig builds the OAuth2 config for the events scope.
func oauthConfig(cfg model.CalendarConfig, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: clientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{gcal.CalendarEventsScope},
		Endpoint:     google.Endpoint,
	}
}

// AuthURL returns the consent URL the user visits to connect their calendar.
func AuthURL(cfg model.CalendarConfig, clientSecret, state string) string {
	return oauthConfig(cfg, clientSecret).AuthCodeURL(state,
		oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode trades an authorization code for a token and returns it
// as JSON suitable for keyring storage.
func ExchangeCode(ctx context.Context, cfg model.CalendarConfig, clientSecret, code string) (string, error) {
	tok, err := oauthConfig(cfg, clientSecret).Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchanging authorization code: %w", err)
	}

	raw, err := json.Marshal(tok)
	if err != nil {
		return "", fmt.Errorf("encoding calendar token: %w", err)
	}
	return string(raw), nil
}

// New creates a calendar client from the stored token JSON. The token
// source refreshes expired access tokens automatically.
func New(ctx context.Context, cfg model.CalendarConfig, clientSecret, tokenJSON string, logger *slog.Logger) (*Client, error) {
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(tokenJSON), &tok); err != nil {
		return nil, fmt.Errorf("decoding calendar token: %w", err)
	}

	ts := oauthConfig(cfg, clientSecret).TokenSource(ctx, &tok)
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	return &Client{svc: svc, logger: logger, calendarID: calendarID}, nil
}

// AddEvent mirrors a task as a calendar event and returns the event ID.
func (c *Client) AddEvent(ctx context.Context, task model.Task) (string, error) {
	if task.DueDate == nil {
		return "", fmt.Errorf("task %s has no due date", task.ID)
	}

	var created *gcal.Event
	err := c.withRetry(ctx, "insert", func() error {
		var err error
		created, err = c.svc.Events.Insert(c.calendarID, eventFromTask(task)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("creating calendar event for task %s: %w", task.ID, err)
	}

	return created.Id, nil
}

// UpdateEvent pushes the task's current state onto its mirrored event.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, task model.Task) error {
	if task.DueDate == nil {
		return fmt.Errorf("task %s has no due date", task.ID)
	}

	err := c.withRetry(ctx, "update", func() error {
		_, err := c.svc.Events.Update(c.calendarID, eventID, eventFromTask(task)).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("updating calendar event %s: %w", eventID, err)
	}
	return nil
}

// DeleteEvent removes a mirrored event.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.withRetry(ctx, "delete", func() error {
		return c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	})
	if err != nil {
		return fmt.Errorf("deleting calendar event %s: %w", eventID, err)
	}
	return nil
}

// GetEvent fetches a mirrored event by ID.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*gcal.Event, error) {
	var ev *gcal.Event
	err := c.withRetry(ctx, "get", func() error {
		var err error
		ev, err = c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting calendar event %s: %w", eventID, err)
	}
	return ev, nil
}

// withRetry wraps a calendar API call with bounded backoff.
func (c *Client) withRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(fn,
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("calendar call failed, retrying",
				"op", op, "attempt", n+1, "error", err)
		}),
	)
}

// eventFromTask converts a task into the calendar event shape. Timed
// tasks get a point event (start == end); all-day tasks get a date-only
// event on the due day.
func eventFromTask(task model.Task) *gcal.Event {
	due := *task.DueDate

	ev := &gcal.Event{
		Summary:     task.Title,
		Description: task.Description,
	}

	if task.HasTime {
		stamp := due.Format(time.RFC3339)
		ev.Start = &gcal.EventDateTime{DateTime: stamp}
		ev.End = &gcal.EventDateTime{DateTime: stamp}
	} else {
		day := due.Format("2006-01-02")
		ev.Start = &gcal.EventDateTime{Date: day}
		ev.End = &gcal.EventDateTime{Date: day}
	}

	return ev
}
