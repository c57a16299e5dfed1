package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"loanpipe-backend/internal/auth"
	"loanpipe-backend/internal/booking"
	"loanpipe-backend/internal/cache"
	"loanpipe-backend/internal/config"
	"loanpipe-backend/internal/crm"
	"loanpipe-backend/internal/middleware"
	"loanpipe-backend/internal/pipeline"
	"loanpipe-backend/internal/transport"
	"loanpipe-backend/internal/tz"
	"loanpipe-backend/internal/validation"
)

type Server struct {
	Cfg     *config.Config
	CRM     *crm.Client
	Val     *validation.Validator
	Log     *slog.Logger
	Cache   cache.Cache
	JWT     *auth.Manager
	Leads   *pipeline.Service
	TZ      *tz.Resolver
	Booking *booking.Service
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}

// writeUpstreamError maps the CRM error taxonomy onto gateway responses.
func writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, crm.ErrValidation):
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, crm.ErrNotFound):
		transport.WriteError(w, http.StatusNotFound, "not found", nil)
	case errors.Is(err, crm.ErrAuth):
		transport.WriteError(w, http.StatusBadGateway, "upstream authentication or permission error", nil)
	default:
		transport.WriteError(w, http.StatusBadGateway, "upstream error", nil)
	}
}
