package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"loanpipe-backend/internal/crm"
	"loanpipe-backend/internal/httpx"
	"loanpipe-backend/internal/transport"

	"github.com/go-chi/chi/v5"
)

type contactRequest struct {
	FirstName    string            `json:"firstName" validate:"required"`
	LastName     string            `json:"lastName"`
	Email        string            `json:"email" validate:"required,email"`
	Phone        string            `json:"phone" validate:"omitempty,phone"`
	Tags         []string          `json:"tags"`
	CustomFields map[string]string `json:"customFields"`
}

type contactListing struct {
	Contacts []crm.Contact `json:"contacts"`
	Total    int           `json:"total"`
	Partial  bool          `json:"partial,omitempty"`
}

func (s *Server) ListContacts(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 100, 500)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	listing, err := s.CRM.ListAllContacts(ctx)
	if err != nil {
		log.Error("contacts: list failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	if listing.Partial {
		log.Warn("contacts: partial listing", slog.Int("count", len(listing.Contacts)))
	}

	total := len(listing.Contacts)
	window := listing.Contacts
	if offset >= int64(total) {
		window = []crm.Contact{}
	} else {
		window = window[offset:]
		if int64(len(window)) > limit {
			window = window[:limit]
		}
	}
	transport.WriteData(w, http.StatusOK, contactListing{
		Contacts: window,
		Total:    total,
		Partial:  listing.Partial,
	})
}

func (s *Server) GetContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	contact, err := s.CRM.GetContact(ctx, id)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, contact)
}

func (s *Server) CreateContact(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req contactRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("contact create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("contact create: validation error")
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	contact, err := s.CRM.CreateContact(ctx, crm.ContactUpsert{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Tags:         req.Tags,
		CustomFields: req.CustomFields,
	})
	if err != nil {
		log.Error("contact create: failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}

	log.Info("contact create: ok", slog.String("contact_id", contact.ID))
	transport.WriteData(w, http.StatusCreated, contact)
}

func (s *Server) UpdateContact(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")

	var req crm.ContactUpsert
	if err := decodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	contact, err := s.CRM.UpdateContact(ctx, id, req)
	if err != nil {
		log.Error("contact update: failed",
			slog.String("contact_id", id),
			slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, contact)
}

func (s *Server) DeleteContact(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.CRM.DeleteContact(ctx, id); err != nil {
		log.Error("contact delete: failed",
			slog.String("contact_id", id),
			slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
