package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"loanpipe-backend/internal/transport"
)

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	users, err := s.CRM.ListUsers(ctx)
	if err != nil {
		log.Error("users: list failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, users)
}

func (s *Server) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	campaigns, err := s.CRM.ListCampaigns(ctx)
	if err != nil {
		log.Error("campaigns: list failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, campaigns)
}

func (s *Server) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	pipelineID := r.URL.Query().Get("pipelineId")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opportunities, err := s.CRM.ListOpportunities(ctx, pipelineID)
	if err != nil {
		log.Error("opportunities: list failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, opportunities)
}
