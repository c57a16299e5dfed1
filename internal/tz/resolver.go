package tz

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"loanpipe-backend/internal/cache"
	"loanpipe-backend/internal/crm"
)

const genCacheKey = "tz:gen"

// Resolver answers "what timezone does this calendar run in". The chain
// is calendar-level field, then location-level field, then the
// configured fallback. Successful lookups are cached for TTL; a fallback
// answer is cached briefly so recovery from remote outages is fast.
//
// Cache keys carry a generation prefix shared through the cache itself,
// so a global clear issued on any gateway instance invalidates entries
// written by every other instance.
type Resolver struct {
	crm         *crm.Client
	cache       cache.Cache
	ttl         time.Duration
	fallbackTTL time.Duration
	fallback    string
	log         *slog.Logger
}

func NewResolver(client *crm.Client, store cache.Cache, ttl, fallbackTTL time.Duration, fallback string, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		crm:         client,
		cache:       store,
		ttl:         ttl,
		fallbackTTL: fallbackTTL,
		fallback:    fallback,
		log:         log,
	}
}

func (r *Resolver) generation(ctx context.Context) string {
	if raw, ok, err := r.cache.Get(ctx, genCacheKey); err == nil && ok {
		return string(raw)
	}
	return "0"
}

func (r *Resolver) calendarKey(ctx context.Context, calendarID string) string {
	return "tz:" + r.generation(ctx) + ":calendar:" + calendarID
}

func (r *Resolver) locationKey(ctx context.Context) string {
	return "tz:" + r.generation(ctx) + ":location"
}

// CalendarTimezone resolves the effective IANA timezone for a calendar.
func (r *Resolver) CalendarTimezone(ctx context.Context, calendarID string) string {
	key := r.calendarKey(ctx, calendarID)
	if cached, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		return string(cached)
	}

	if name, ok := r.calendarLevel(ctx, calendarID); ok {
		r.store(ctx, key, name, r.ttl)
		return name
	}
	if name, ok := r.locationLevel(ctx); ok {
		r.store(ctx, key, name, r.ttl)
		return name
	}

	r.log.Warn("timezone: falling back to default",
		slog.String("calendar_id", calendarID),
		slog.String("fallback", r.fallback))
	r.store(ctx, key, r.fallback, r.fallbackTTL)
	return r.fallback
}

func (r *Resolver) calendarLevel(ctx context.Context, calendarID string) (string, bool) {
	cal, err := r.crm.GetCalendar(ctx, calendarID)
	if err != nil {
		r.log.Warn("timezone: calendar lookup failed",
			slog.String("calendar_id", calendarID),
			slog.String("error", err.Error()))
		return "", false
	}
	if name := CleanTimezone(cal.Timezone); name != "" {
		return name, true
	}
	return "", false
}

func (r *Resolver) locationLevel(ctx context.Context) (string, bool) {
	key := r.locationKey(ctx)
	if cached, ok, err := r.cache.Get(ctx, key); err == nil && ok {
		return string(cached), true
	}
	loc, err := r.crm.GetLocation(ctx)
	if err != nil {
		r.log.Warn("timezone: location lookup failed", slog.String("error", err.Error()))
		return "", false
	}
	name := CleanTimezone(loc.Timezone)
	if name == "" {
		return "", false
	}
	r.store(ctx, key, name, r.ttl)
	return name, true
}

// DisplayZone resolves and formats the calendar's zone for the given
// instant.
func (r *Resolver) DisplayZone(ctx context.Context, calendarID string, at time.Time) (string, string) {
	name := r.CalendarTimezone(ctx, calendarID)
	display, err := FormatZone(name, at)
	if err != nil {
		// Cached value went bad; fall through rather than fail the read.
		display, _ = FormatZone(r.fallback, at)
		return r.fallback, display
	}
	return name, display
}

// ClearCalendar drops the cached zone for one calendar.
func (r *Resolver) ClearCalendar(ctx context.Context, calendarID string) {
	_ = r.cache.Delete(ctx, r.calendarKey(ctx, calendarID))
}

// ClearAll invalidates every cached zone, including entries written by
// other gateway instances, by rotating the shared generation value.
// Orphaned entries under the old generation age out by TTL.
func (r *Resolver) ClearAll(ctx context.Context) {
	gen := strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := r.cache.Set(ctx, genCacheKey, []byte(gen), 0); err != nil {
		r.log.Warn("timezone: generation rotate failed", slog.String("error", err.Error()))
	}
}

func (r *Resolver) store(ctx context.Context, key, value string, ttl time.Duration) {
	if err := r.cache.Set(ctx, key, []byte(value), ttl); err != nil {
		r.log.Warn("timezone: cache store failed", slog.String("error", err.Error()))
	}
}
