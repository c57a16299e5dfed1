package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

func (c *Client) ListCalendars(ctx context.Context) ([]Calendar, error) {
	raw, err := c.do(ctx, http.MethodGet, "/calendars", c.locationQuery(), nil)
	if err != nil {
		return nil, err
	}

	records, ok := ExtractList(raw, "calendars")
	if !ok {
		c.log.Warn("calendars: unrecognized envelope, treating as empty")
		return []Calendar{}, nil
	}

	calendars := make([]Calendar, 0, len(records))
	for _, rec := range records {
		var cal Calendar
		if err := json.Unmarshal(rec, &cal); err != nil {
			c.log.Warn("calendars: skipping undecodable record", slog.String("error", err.Error()))
			continue
		}
		calendars = append(calendars, cal)
	}
	return calendars, nil
}

func (c *Client) GetCalendar(ctx context.Context, id string) (Calendar, error) {
	calendars, err := c.ListCalendars(ctx)
	if err != nil {
		return Calendar{}, err
	}
	for _, cal := range calendars {
		if cal.ID == id {
			return cal, nil
		}
	}
	return Calendar{}, ErrNotFound
}

// GetLocation fetches the location record, which carries the
// location-level timezone used when a calendar has none of its own.
func (c *Client) GetLocation(ctx context.Context) (Location, error) {
	if c.locationID == "" {
		return Location{}, fmt.Errorf("%w: no location id configured", ErrValidation)
	}
	raw, err := c.do(ctx, http.MethodGet, "/locations/"+c.locationID, nil, nil)
	if err != nil {
		return Location{}, err
	}
	rec, ok := ExtractOne(raw, "locations")
	if !ok {
		return Location{}, fmt.Errorf("%w: empty location response", ErrRemote)
	}
	var loc Location
	if err := json.Unmarshal(rec, &loc); err != nil {
		return Location{}, fmt.Errorf("crm decode location: %w", err)
	}
	return loc, nil
}

// FreeSlots lists bookable start times for a calendar on a given date
// (YYYY-MM-DD).
func (c *Client) FreeSlots(ctx context.Context, calendarID, date string) ([]FreeSlot, error) {
	q := c.locationQuery()
	q.Set("startDate", date)
	q.Set("endDate", date)

	raw, err := c.do(ctx, http.MethodGet, "/calendars/"+calendarID+"/free-slots", q, nil)
	if err != nil {
		return nil, err
	}

	records, ok := ExtractList(raw, "slots")
	if !ok {
		c.log.Warn("free-slots: unrecognized envelope, treating as empty", slog.String("calendar_id", calendarID))
		return []FreeSlot{}, nil
	}

	slots := make([]FreeSlot, 0, len(records))
	for _, rec := range records {
		var slot FreeSlot
		if err := json.Unmarshal(rec, &slot); err == nil && slot.Start != "" {
			slots = append(slots, slot)
			continue
		}
		// Some calendar endpoints return bare RFC3339 strings.
		var start string
		if err := json.Unmarshal(rec, &start); err == nil && start != "" {
			slots = append(slots, FreeSlot{Start: start})
		}
	}
	return slots, nil
}
