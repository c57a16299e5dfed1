package tz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"loanpipe-backend/internal/cache"
	"loanpipe-backend/internal/crm"
)

type fakeCalendarAPI struct {
	mu            sync.Mutex
	calendarTZ    string
	locationTZ    string
	calendarHits  int
	locationHits  int
	calendarsFail bool
}

func (f *fakeCalendarAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.URL.Path {
		case "/calendars":
			f.calendarHits++
			if f.calendarsFail {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"calendars": []map[string]string{
					{"id": "cal_1", "name": "Sales", "timezone": f.calendarTZ},
				},
			})
		case "/locations/loc_1":
			f.locationHits++
			json.NewEncoder(w).Encode(map[string]interface{}{
				"location": map[string]string{"id": "loc_1", "timezone": f.locationTZ},
			})
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	})
}

func newTestResolver(t *testing.T, fake *fakeCalendarAPI, now *time.Time) (*Resolver, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	client := crm.NewClient(crm.Options{
		BaseURL:    srv.URL,
		APIKey:     "k",
		APIVersion: "v",
		LocationID: "loc_1",
		Timeout:    2 * time.Second,
	}, nil)
	store := cache.NewMemoryWithClock(func() time.Time { return *now })
	resolver := NewResolver(client, store, 30*time.Minute, time.Minute, "America/Los_Angeles", nil)
	return resolver, srv
}

func TestResolveCalendarLevel(t *testing.T) {
	fake := &fakeCalendarAPI{calendarTZ: "America/Chicago", locationTZ: "America/New_York"}
	now := time.Now()
	resolver, srv := newTestResolver(t, fake, &now)
	defer srv.Close()

	if got := resolver.CalendarTimezone(context.Background(), "cal_1"); got != "America/Chicago" {
		t.Fatalf("expected calendar-level zone, got %s", got)
	}
	if fake.locationHits != 0 {
		t.Fatalf("location endpoint should not be consulted when calendar has a zone")
	}
}

func TestResolveLocationLevel(t *testing.T) {
	fake := &fakeCalendarAPI{calendarTZ: "", locationTZ: "America/New_York"}
	now := time.Now()
	resolver, srv := newTestResolver(t, fake, &now)
	defer srv.Close()

	if got := resolver.CalendarTimezone(context.Background(), "cal_1"); got != "America/New_York" {
		t.Fatalf("expected location-level zone, got %s", got)
	}
}

func TestResolveFallback(t *testing.T) {
	fake := &fakeCalendarAPI{calendarsFail: true, locationTZ: "garbage"}
	now := time.Now()
	resolver, srv := newTestResolver(t, fake, &now)
	defer srv.Close()

	if got := resolver.CalendarTimezone(context.Background(), "cal_1"); got != "America/Los_Angeles" {
		t.Fatalf("expected hardcoded fallback, got %s", got)
	}
}

func TestResolveRepairsCompositeZone(t *testing.T) {
	fake := &fakeCalendarAPI{calendarTZ: "GMT-07:00 America/Los_Angeles (PDT)"}
	now := time.Now()
	resolver, srv := newTestResolver(t, fake, &now)
	defer srv.Close()

	if got := resolver.CalendarTimezone(context.Background(), "cal_1"); got != "America/Los_Angeles" {
		t.Fatalf("expected repaired zone, got %s", got)
	}
}

func TestCalendarTimezoneCacheTTL(t *testing.T) {
	fake := &fakeCalendarAPI{calendarTZ: "America/Chicago"}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	resolver, srv := newTestResolver(t, fake, &now)
	defer srv.Close()

	ctx := context.Background()
	resolver.CalendarTimezone(ctx, "cal_1")
	if fake.calendarHits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", fake.calendarHits)
	}

	// 29 minutes in: still served from cache.
	now = now.Add(29 * time.Minute)
	resolver.CalendarTimezone(ctx, "cal_1")
	if fake.calendarHits != 1 {
		t.Fatalf("entry should still be cached at T+29m, hits=%d", fake.calendarHits)
	}

	// 31 minutes in: TTL expired, refetched.
	now = now.Add(2 * time.Minute)
	resolver.CalendarTimezone(ctx, "cal_1")
	if fake.calendarHits != 2 {
		t.Fatalf("entry should be refetched at T+31m, hits=%d", fake.calendarHits)
	}
}

func TestFallbackCachedBriefly(t *testing.T) {
	fake := &fakeCalendarAPI{calendarsFail: true, locationTZ: ""}
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	resolver, srv := newTestResolver(t, fake, &now)
	defer srv.Close()

	ctx := context.Background()
	resolver.CalendarTimezone(ctx, "cal_1")
	hits := fake.calendarHits

	// Within the short fallback TTL the bad answer is reused.
	now = now.Add(30 * time.Second)
	resolver.CalendarTimezone(ctx, "cal_1")
	if fake.calendarHits != hits {
		t.Fatalf("fallback should be cached within its TTL")
	}

	// After the short TTL the chain is retried, so recovery is quick.
	fake.mu.Lock()
	fake.calendarsFail = false
	fake.calendarTZ = "America/Denver"
	fake.mu.Unlock()

	now = now.Add(45 * time.Second)
	if got := resolver.CalendarTimezone(ctx, "cal_1"); got != "America/Denver" {
		t.Fatalf("expected recovery after fallback TTL, got %s", got)
	}
}

func TestClearCalendar(t *testing.T) {
	fake := &fakeCalendarAPI{calendarTZ: "America/Chicago"}
	now := time.Now()
	resolver, srv := newTestResolver(t, fake, &now)
	defer srv.Close()

	ctx := context.Background()
	resolver.CalendarTimezone(ctx, "cal_1")
	resolver.ClearCalendar(ctx, "cal_1")
	resolver.CalendarTimezone(ctx, "cal_1")
	if fake.calendarHits != 2 {
		t.Fatalf("explicit clear should force a refetch, hits=%d", fake.calendarHits)
	}
}

func TestClearAllReachesPeerInstances(t *testing.T) {
	fake := &fakeCalendarAPI{calendarTZ: "America/Chicago"}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := crm.NewClient(crm.Options{
		BaseURL:    srv.URL,
		APIKey:     "k",
		APIVersion: "v",
		LocationID: "loc_1",
		Timeout:    2 * time.Second,
	}, nil)

	// Two gateway instances share one cache backend.
	store := cache.NewMemory()
	a := NewResolver(client, store, 30*time.Minute, time.Minute, "America/Los_Angeles", nil)
	b := NewResolver(client, store, 30*time.Minute, time.Minute, "America/Los_Angeles", nil)

	ctx := context.Background()
	a.CalendarTimezone(ctx, "cal_1")
	if fake.calendarHits != 1 {
		t.Fatalf("expected 1 upstream hit, got %d", fake.calendarHits)
	}

	b.ClearAll(ctx)
	a.CalendarTimezone(ctx, "cal_1")
	if fake.calendarHits != 2 {
		t.Fatalf("clear issued on a peer instance should force a refetch, hits=%d", fake.calendarHits)
	}
}

func TestClearAll(t *testing.T) {
	fake := &fakeCalendarAPI{calendarTZ: "", locationTZ: "America/New_York"}
	now := time.Now()
	resolver, srv := newTestResolver(t, fake, &now)
	defer srv.Close()

	ctx := context.Background()
	resolver.CalendarTimezone(ctx, "cal_1")
	locHits := fake.locationHits

	resolver.ClearAll(ctx)
	resolver.CalendarTimezone(ctx, "cal_1")
	if fake.locationHits == locHits {
		t.Fatalf("global clear should drop the location entry too")
	}
}
