package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"loanpipe-backend/internal/crm"
	"loanpipe-backend/internal/transport"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListAppointments(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	calendarID := r.URL.Query().Get("calendarId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	views, err := s.Booking.Appointments(ctx, calendarID)
	if err != nil {
		log.Error("appointments: list failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, views)
}

type appointmentRequest struct {
	CalendarID string `json:"calendarId" validate:"required"`
	ContactID  string `json:"contactId" validate:"required"`
	Title      string `json:"title"`
	StartTime  string `json:"startTime" validate:"required"`
	EndTime    string `json:"endTime" validate:"required"`
	Timezone   string `json:"timezone" validate:"omitempty,timezone"`
}

func (s *Server) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req appointmentRequest
	if err := decodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	view, err := s.Booking.Book(ctx, crm.AppointmentCreate{
		CalendarID: req.CalendarID,
		ContactID:  req.ContactID,
		Title:      req.Title,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Timezone:   req.Timezone,
	})
	if err != nil {
		log.Error("appointment create: failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}

	log.Info("appointment create: ok",
		slog.String("appointment_id", view.ID),
		slog.String("calendar_id", view.CalendarID))
	transport.WriteData(w, http.StatusCreated, view)
}

func (s *Server) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.CRM.CancelAppointment(ctx, id); err != nil {
		log.Error("appointment cancel: failed",
			slog.String("appointment_id", id),
			slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": "cancelled"})
}
