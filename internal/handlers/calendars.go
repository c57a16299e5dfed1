package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"loanpipe-backend/internal/transport"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListCalendars(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	calendars, err := s.CRM.ListCalendars(ctx)
	if err != nil {
		log.Error("calendars: list failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, calendars)
}

func (s *Server) GetCalendarTimezone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	name, display := s.TZ.DisplayZone(ctx, id, time.Now())
	transport.WriteData(w, http.StatusOK, map[string]string{
		"calendarId": id,
		"timezone":   name,
		"display":    display,
	})
}

type slotsQuery struct {
	Date string `validate:"required,date"`
	From string `validate:"omitempty,clock"`
	To   string `validate:"omitempty,clock"`
}

func (s *Server) GetCalendarSlots(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")

	q := slotsQuery{
		Date: r.URL.Query().Get("date"),
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := s.Val.Struct(q); err != nil {
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "invalid query", details)
		return
	}

	cacheKey := "slots:" + id + ":" + q.Date
	if q.From != "" || q.To != "" {
		cacheKey += ":" + q.From + "-" + q.To
	}
	if cached, ok, err := s.Cache.Get(r.Context(), cacheKey); err == nil && ok {
		log.Info("slots: cache hit", slog.String("calendar_id", id), slog.String("date", q.Date))
		writeCachedJSON(w, http.StatusOK, cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	listing, err := s.Booking.FreeSlots(ctx, id, q.Date)
	if err != nil {
		log.Error("slots: fetch failed",
			slog.String("calendar_id", id),
			slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	if q.From != "" || q.To != "" {
		if listing, err = listing.Window(q.From, q.To); err != nil {
			transport.WriteError(w, http.StatusBadRequest, "invalid slot window", nil)
			return
		}
	}

	envelope := transport.Envelope{Success: true, Data: listing}
	if payload, err := encodeJSON(envelope); err == nil {
		_ = s.Cache.Set(r.Context(), cacheKey, payload, time.Duration(s.Cfg.SlotCacheTTLSeconds)*time.Second)
	}

	log.Info("slots: ok",
		slog.String("calendar_id", id),
		slog.String("date", q.Date),
		slog.Int("slots", len(listing.Slots)))
	transport.WriteData(w, http.StatusOK, listing)
}

func (s *Server) ClearCalendarTimezoneCache(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.TZ.ClearCalendar(r.Context(), id)
	transport.WriteData(w, http.StatusOK, map[string]string{"calendarId": id, "status": "cleared"})
}

func (s *Server) ClearTimezoneCache(w http.ResponseWriter, r *http.Request) {
	s.TZ.ClearAll(r.Context())
	transport.WriteData(w, http.StatusOK, map[string]string{"status": "cleared"})
}
