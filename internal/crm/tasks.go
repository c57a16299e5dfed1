package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

type TaskUpsert struct {
	Title      string `json:"title"`
	Body       string `json:"body,omitempty"`
	DueDate    string `json:"dueDate,omitempty"`
	AssignedTo string `json:"assignedTo,omitempty"`
	ContactID  string `json:"contactId,omitempty"`
	Priority   string `json:"priority,omitempty"`
	Completed  bool   `json:"completed"`
}

func (c *Client) ListTasks(ctx context.Context, includeCompleted bool) ([]Task, error) {
	q := c.locationQuery()
	if includeCompleted {
		q.Set("status", "all")
	} else {
		q.Set("status", "open")
	}

	raw, err := c.do(ctx, http.MethodGet, "/tasks", q, nil)
	if err != nil {
		return nil, err
	}

	records, ok := ExtractList(raw, "tasks")
	if !ok {
		c.log.Warn("tasks: unrecognized envelope, treating as empty")
		return []Task{}, nil
	}

	tasks := make([]Task, 0, len(records))
	for _, rec := range records {
		var task Task
		if err := json.Unmarshal(rec, &task); err != nil {
			c.log.Warn("tasks: skipping undecodable record", slog.String("error", err.Error()))
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, req TaskUpsert) (Task, error) {
	if req.Title == "" {
		return Task{}, fmt.Errorf("%w: task title is required", ErrValidation)
	}
	raw, err := c.do(ctx, http.MethodPost, "/tasks", c.locationQuery(), req)
	if err != nil {
		return Task{}, err
	}
	return decodeTask(raw)
}

func (c *Client) CompleteTask(ctx context.Context, id string) (Task, error) {
	payload := map[string]bool{"completed": true}
	raw, err := c.do(ctx, http.MethodPut, "/tasks/"+id, nil, payload)
	if err != nil {
		return Task{}, err
	}
	return decodeTask(raw)
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
	return err
}

func decodeTask(raw []byte) (Task, error) {
	rec, ok := ExtractOne(raw, "tasks")
	if !ok {
		return Task{}, fmt.Errorf("%w: empty task response", ErrRemote)
	}
	var task Task
	if err := json.Unmarshal(rec, &task); err != nil {
		return Task{}, fmt.Errorf("crm decode task: %w", err)
	}
	return task, nil
}
