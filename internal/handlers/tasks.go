package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"loanpipe-backend/internal/crm"
	"loanpipe-backend/internal/middleware"
	"loanpipe-backend/internal/tasks"
	"loanpipe-backend/internal/transport"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	// Open and completed tasks come from separate listings; fetch both
	// and tolerate either side failing alone.
	type result struct {
		tasks []crm.Task
		err   error
	}
	openCh := make(chan result, 1)
	doneCh := make(chan result, 1)
	go func() {
		list, err := s.CRM.ListTasks(ctx, false)
		openCh <- result{list, err}
	}()
	go func() {
		list, err := s.CRM.ListTasks(ctx, true)
		doneCh <- result{list, err}
	}()
	open, completed := <-openCh, <-doneCh

	if open.err != nil && completed.err != nil {
		log.Error("tasks: both listings failed", slog.String("error", open.err.Error()))
		writeUpstreamError(w, open.err)
		return
	}

	seen := make(map[string]bool)
	merged := make([]crm.Task, 0, len(open.tasks)+len(completed.tasks))
	for _, list := range [][]crm.Task{open.tasks, completed.tasks} {
		for _, task := range list {
			if seen[task.ID] {
				continue
			}
			seen[task.ID] = true
			merged = append(merged, task)
		}
	}

	userID := ""
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		userID = claims.Username
	}

	loc, err := time.LoadLocation(s.Cfg.DefaultTimezone)
	if err != nil {
		loc = time.UTC
	}
	buckets := tasks.Classify(merged, userID, time.Now(), loc)

	log.Info("tasks: ok", slog.Int("count", len(merged)),
		slog.Bool("partial", open.err != nil || completed.err != nil))
	transport.WriteData(w, http.StatusOK, map[string]interface{}{
		"tasks":   merged,
		"buckets": buckets,
		"partial": open.err != nil || completed.err != nil,
	})
}

type taskRequest struct {
	Title      string `json:"title" validate:"required"`
	Body       string `json:"body"`
	DueDate    string `json:"dueDate" validate:"omitempty"`
	AssignedTo string `json:"assignedTo"`
	ContactID  string `json:"contactId"`
	Priority   string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	var req taskRequest
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

	task, err := s.CRM.CreateTask(ctx, crm.TaskUpsert{
		Title:      req.Title,
		Body:       req.Body,
		DueDate:    req.DueDate,
		AssignedTo: req.AssignedTo,
		ContactID:  req.ContactID,
		Priority:   req.Priority,
	})
	if err != nil {
		log.Error("task create: failed", slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}

	log.Info("task create: ok", slog.String("task_id", task.ID))
	transport.WriteData(w, http.StatusCreated, task)
}

func (s *Server) CompleteTask(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	task, err := s.CRM.CompleteTask(ctx, id)
	if err != nil {
		log.Error("task complete: failed",
			slog.String("task_id", id),
			slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, task)
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if err := s.CRM.DeleteTask(ctx, id); err != nil {
		log.Error("task delete: failed",
			slog.String("task_id", id),
			slog.String("error", err.Error()))
		writeUpstreamError(w, err)
		return
	}
	transport.WriteData(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
