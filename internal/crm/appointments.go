package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

type AppointmentCreate struct {
	CalendarID string `json:"calendarId"`
	ContactID  string `json:"contactId"`
	Title      string `json:"title,omitempty"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	Timezone   string `json:"timezone,omitempty"`
}

func (c *Client) ListAppointments(ctx context.Context, calendarID string) ([]Appointment, error) {
	q := c.locationQuery()
	if calendarID != "" {
		q.Set("calendarId", calendarID)
	}

	raw, err := c.do(ctx, http.MethodGet, "/appointments", q, nil)
	if err != nil {
		return nil, err
	}

	records, ok := ExtractList(raw, "appointments")
	if !ok {
		c.log.Warn("appointments: unrecognized envelope, treating as empty")
		return []Appointment{}, nil
	}

	appointments := make([]Appointment, 0, len(records))
	for _, rec := range records {
		var appt Appointment
		if err := json.Unmarshal(rec, &appt); err != nil {
			c.log.Warn("appointments: skipping undecodable record", slog.String("error", err.Error()))
			continue
		}
		appointments = append(appointments, appt)
	}
	return appointments, nil
}

func (c *Client) CreateAppointment(ctx context.Context, req AppointmentCreate) (Appointment, error) {
	if req.CalendarID == "" || req.ContactID == "" {
		return Appointment{}, fmt.Errorf("%w: calendarId and contactId are required", ErrValidation)
	}
	if req.StartTime == "" || req.EndTime == "" {
		return Appointment{}, fmt.Errorf("%w: startTime and endTime are required", ErrValidation)
	}

	raw, err := c.do(ctx, http.MethodPost, "/appointments", c.locationQuery(), req)
	if err != nil {
		return Appointment{}, err
	}

	rec, ok := ExtractOne(raw, "appointments")
	if !ok {
		return Appointment{}, fmt.Errorf("%w: empty appointment response", ErrRemote)
	}
	var appt Appointment
	if err := json.Unmarshal(rec, &appt); err != nil {
		return Appointment{}, fmt.Errorf("crm decode appointment: %w", err)
	}
	return appt, nil
}

func (c *Client) CancelAppointment(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/appointments/"+id, nil, nil)
	return err
}
