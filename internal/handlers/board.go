package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"loanpipe-backend/internal/pipeline"
	"loanpipe-backend/internal/transport"

	"github.com/go-chi/chi/v5"
)

func (s *Server) GetBoard(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	board, err := s.Leads.Board(ctx)
	if err != nil {
		log.Error("board: fetch failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}

	if board.Degraded {
		log.Warn("board: serving degraded snapshot")
	}
	log.Info("board: ok",
		slog.Bool("partial", board.Partial),
		slog.Bool("degraded", board.Degraded))
	transport.WriteData(w, http.StatusOK, board)
}

type stageMoveRequest struct {
	Stage string `json:"stage" validate:"required,stage"`
}

func (s *Server) MoveLeadStage(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	leadID := chi.URLParam(r, "id")

	var req stageMoveRequest
	if err := decodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		details := validationDetails(s.Val.ValidationErrors(err))
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}
	stage, _ := pipeline.ParseStage(req.Stage)

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	lead, err := s.Leads.MoveStage(ctx, leadID, stage)
	if err != nil {
		log.Error("stage move: failed",
			slog.String("lead_id", leadID),
			slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}

	log.Info("stage move: ok",
		slog.String("lead_id", leadID),
		slog.String("stage", string(lead.Stage)))
	transport.WriteData(w, http.StatusOK, lead)
}

func (s *Server) GetLeadStage(w http.ResponseWriter, r *http.Request) {
	leadID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	stage, err := s.Leads.LeadStage(ctx, leadID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, map[string]string{"id": leadID, "stage": string(stage)})
}
