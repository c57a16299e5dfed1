package booking

import (
	"context"
	"log/slog"
	"time"

	"loanpipe-backend/internal/crm"
	"loanpipe-backend/internal/tz"
)

const DefaultSlotMinutes = 30

// Service turns remote free-busy data into display-ready slots and
// proxies appointment booking.
type Service struct {
	crm      *crm.Client
	resolver *tz.Resolver
	log      *slog.Logger
}

func NewService(client *crm.Client, resolver *tz.Resolver, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{crm: client, resolver: resolver, log: log}
}

// Slot is one bookable slot rendered in the calendar's resolved zone.
type Slot struct {
	Start   string `json:"start"`
	Display string `json:"display"`
}

// SlotListing carries the slots plus the zone they are rendered in.
type SlotListing struct {
	CalendarID  string `json:"calendarId"`
	Date        string `json:"date"`
	Timezone    string `json:"timezone"`
	TimezoneTag string `json:"timezoneDisplay"`
	Slots       []Slot `json:"slots"`
}

// Window narrows the listing to slots starting within [from, to], both
// "HH:MM" clocks. An empty bound leaves that side open.
func (l SlotListing) Window(from, to string) (SlotListing, error) {
	fromMin, toMin := 0, minutesPerDay
	if from != "" {
		m, err := ParseClockToMinutes(from)
		if err != nil {
			return l, err
		}
		fromMin = m
	}
	if to != "" {
		m, err := ParseClockToMinutes(to)
		if err != nil {
			return l, err
		}
		toMin = m
	}

	out := l
	out.Slots = make([]Slot, 0, len(l.Slots))
	for _, slot := range l.Slots {
		m, err := ParseClockToMinutes(slot.Display)
		if err != nil {
			continue
		}
		if m < fromMin || m > toMin {
			continue
		}
		out.Slots = append(out.Slots, slot)
	}
	return out, nil
}

// FreeSlots fetches the calendar's free slots for a date, filters out
// any that collide with existing appointments, and renders start times
// in the calendar's effective timezone.
func (s *Service) FreeSlots(ctx context.Context, calendarID, date string) (SlotListing, error) {
	zoneName, zoneDisplay := s.resolver.DisplayZone(ctx, calendarID, time.Now())
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		return SlotListing{}, err
	}

	remoteSlots, err := s.crm.FreeSlots(ctx, calendarID, date)
	if err != nil {
		return SlotListing{}, err
	}

	busy, err := s.busyIntervals(ctx, calendarID, date, loc)
	if err != nil {
		// Busy lookup failing should not hide the free slots entirely.
		s.log.Warn("slots: busy interval lookup failed",
			slog.String("calendar_id", calendarID),
			slog.String("error", err.Error()))
		busy = nil
	}

	listing := SlotListing{
		CalendarID:  calendarID,
		Date:        date,
		Timezone:    zoneName,
		TimezoneTag: zoneDisplay,
		Slots:       make([]Slot, 0, len(remoteSlots)),
	}

	for _, remote := range remoteSlots {
		start, err := time.Parse(time.RFC3339, remote.Start)
		if err != nil {
			s.log.Warn("slots: skipping unparseable slot", slog.String("start", remote.Start))
			continue
		}
		startMin := minutesOfDay(start, loc)
		if len(FilterBusy([]int{startMin}, DefaultSlotMinutes, busy)) == 0 {
			continue
		}
		listing.Slots = append(listing.Slots, Slot{
			Start:   start.In(loc).Format(time.RFC3339),
			Display: MinutesToClock(startMin),
		})
	}
	return listing, nil
}

func (s *Service) busyIntervals(ctx context.Context, calendarID, date string, loc *time.Location) ([]Interval, error) {
	day, err := ParseDate(date, loc)
	if err != nil {
		return nil, err
	}
	dayEnd := day.AddDate(0, 0, 1)

	appointments, err := s.crm.ListAppointments(ctx, calendarID)
	if err != nil {
		return nil, err
	}

	intervals := make([]Interval, 0, len(appointments))
	for _, appt := range appointments {
		if appt.Status == StatusCancelled {
			continue
		}
		start, err := time.Parse(time.RFC3339, appt.StartTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, appt.EndTime)
		if err != nil || !end.After(start) {
			end = start.Add(DefaultSlotMinutes * time.Minute)
		}
		// Anything overlapping the day counts, including appointments
		// spilling in from the night before; clamp to the day window.
		if !start.Before(dayEnd) || !end.After(day) {
			continue
		}
		startMin := int(start.Sub(day).Minutes())
		endMin := int(end.Sub(day).Minutes())
		if startMin < 0 {
			startMin = 0
		}
		if endMin > minutesPerDay {
			endMin = minutesPerDay
		}
		intervals = append(intervals, Interval{Start: startMin, End: endMin})
	}
	return intervals, nil
}

// AppointmentView is an appointment mirror plus its render color.
type AppointmentView struct {
	crm.Appointment
	Color string `json:"color"`
}

func (s *Service) Appointments(ctx context.Context, calendarID string) ([]AppointmentView, error) {
	appointments, err := s.crm.ListAppointments(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	views := make([]AppointmentView, 0, len(appointments))
	for _, appt := range appointments {
		views = append(views, AppointmentView{Appointment: appt, Color: StatusColor(appt.Status)})
	}
	return views, nil
}

func (s *Service) Book(ctx context.Context, req crm.AppointmentCreate) (AppointmentView, error) {
	if req.Timezone == "" {
		req.Timezone = s.resolver.CalendarTimezone(ctx, req.CalendarID)
	}
	appt, err := s.crm.CreateAppointment(ctx, req)
	if err != nil {
		return AppointmentView{}, err
	}
	return AppointmentView{Appointment: appt, Color: StatusColor(appt.Status)}, nil
}
