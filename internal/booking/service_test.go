package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loanpipe-backend/internal/cache"
	"loanpipe-backend/internal/crm"
	"loanpipe-backend/internal/tz"
)

type fakeBookingAPI struct {
	slots        []string
	appointments []crm.Appointment
}

func (f *fakeBookingAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/calendars":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"calendars": []map[string]string{
					{"id": "cal_1", "name": "Sales", "timezone": "UTC"},
				},
			})
		case "/calendars/cal_1/free-slots":
			json.NewEncoder(w).Encode(map[string]interface{}{"slots": f.slots})
		case "/appointments":
			json.NewEncoder(w).Encode(map[string]interface{}{"appointments": f.appointments})
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})
}

func newTestBooking(t *testing.T, fake *fakeBookingAPI) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	client := crm.NewClient(crm.Options{
		BaseURL:    srv.URL,
		APIKey:     "k",
		APIVersion: "v",
		LocationID: "loc_1",
		Timeout:    2 * time.Second,
	}, nil)
	resolver := tz.NewResolver(client, cache.NewMemory(), 30*time.Minute, time.Minute, "America/Los_Angeles", nil)
	return NewService(client, resolver, nil), srv
}

func TestFreeSlotsFiltersBusy(t *testing.T) {
	fake := &fakeBookingAPI{
		slots: []string{"2026-06-02T09:00:00Z", "2026-06-02T10:00:00Z"},
		appointments: []crm.Appointment{
			{ID: "a1", CalendarID: "cal_1", StartTime: "2026-06-02T09:00:00Z", EndTime: "2026-06-02T09:30:00Z", Status: "confirmed"},
		},
	}
	svc, srv := newTestBooking(t, fake)
	defer srv.Close()

	listing, err := svc.FreeSlots(context.Background(), "cal_1", "2026-06-02")
	if err != nil {
		t.Fatalf("FreeSlots error: %v", err)
	}
	if len(listing.Slots) != 1 || listing.Slots[0].Display != "10:00" {
		t.Fatalf("expected only the 10:00 slot, got %+v", listing.Slots)
	}
	if listing.Timezone != "UTC" {
		t.Fatalf("expected resolved zone UTC, got %s", listing.Timezone)
	}
}

func TestFreeSlotsOvernightAppointmentBlocksMorning(t *testing.T) {
	// An appointment running 23:30 the night before into 00:30 must
	// still block the 00:00 slot on the requested day.
	fake := &fakeBookingAPI{
		slots: []string{"2026-06-02T00:00:00Z", "2026-06-02T09:00:00Z"},
		appointments: []crm.Appointment{
			{ID: "a1", CalendarID: "cal_1", StartTime: "2026-06-01T23:30:00Z", EndTime: "2026-06-02T00:30:00Z", Status: "confirmed"},
		},
	}
	svc, srv := newTestBooking(t, fake)
	defer srv.Close()

	listing, err := svc.FreeSlots(context.Background(), "cal_1", "2026-06-02")
	if err != nil {
		t.Fatalf("FreeSlots error: %v", err)
	}
	if len(listing.Slots) != 1 || listing.Slots[0].Display != "09:00" {
		t.Fatalf("expected the midnight slot filtered, got %+v", listing.Slots)
	}
}

func TestFreeSlotsIgnoresCancelled(t *testing.T) {
	fake := &fakeBookingAPI{
		slots: []string{"2026-06-02T09:00:00Z"},
		appointments: []crm.Appointment{
			{ID: "a1", CalendarID: "cal_1", StartTime: "2026-06-02T09:00:00Z", EndTime: "2026-06-02T09:30:00Z", Status: StatusCancelled},
		},
	}
	svc, srv := newTestBooking(t, fake)
	defer srv.Close()

	listing, err := svc.FreeSlots(context.Background(), "cal_1", "2026-06-02")
	if err != nil {
		t.Fatalf("FreeSlots error: %v", err)
	}
	if len(listing.Slots) != 1 {
		t.Fatalf("cancelled appointment should not block the slot, got %+v", listing.Slots)
	}
}
