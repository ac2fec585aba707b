// Commendo - Sentiment-Driven Recommendations and Courier Ranking
// Copyright 2026 Serge Kouam (skouam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/skouam/commendo

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/skouam/commendo/internal/taskfeed"
	"github.com/skouam/commendo/internal/tasks"
)

// taskStatusBody is the polling response. Result and Error appear only
// once the task reaches a terminal state.
type taskStatusBody struct {
	TaskID string          `json:"task_id"`
	Status string          `json:"status"`
	Ready  bool            `json:"ready"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// TaskStatus reports a task's lifecycle state.
func (h *Handlers) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	record, err := h.orch.TaskStatus(r.Context(), taskID)
	if err != nil {
		respondTaskError(w, taskID, err)
		return
	}

	body := taskStatusBody{
		TaskID: record.ID,
		Status: string(record.Status),
		Ready:  record.Status.Terminal(),
	}
	if body.Ready {
		body.Result = record.Result
		body.Error = record.Error
	}
	RespondJSON(w, http.StatusOK, body)
}

// TaskCancel revokes a task that has not started yet.
func (h *Handlers) TaskCancel(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	if err := h.orch.CancelTask(r.Context(), taskID); err != nil {
		if errors.Is(err, tasks.ErrNotCancellable) {
			RespondError(w, http.StatusConflict, "task has already started or finished")
			return
		}
		respondTaskError(w, taskID, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{
		"task_id": taskID,
		"status":  "revoked",
	})
}

// TaskResult returns a finished task's payload. A task still in flight is
// a 404, the same shape callers see for unknown ids after the result TTL.
func (h *Handlers) TaskResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	record, err := h.orch.TaskStatus(r.Context(), taskID)
	if err != nil {
		respondTaskError(w, taskID, err)
		return
	}

	switch record.Status {
	case tasks.StatusSuccess:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if len(record.Result) > 0 {
			_, _ = w.Write(record.Result)
		} else {
			_, _ = w.Write([]byte("null"))
		}
	case tasks.StatusFailure:
		RespondErrorDetail(w, http.StatusInternalServerError, "task failed", record.Error)
	default:
		RespondError(w, http.StatusNotFound, "task result not ready")
	}
}

// TaskFeed upgrades to the websocket task feed.
func (h *Handlers) TaskFeed(w http.ResponseWriter, r *http.Request) {
	if h.feed == nil {
		RespondError(w, http.StatusServiceUnavailable, "task feed is not available")
		return
	}
	taskfeed.ServeWS(h.feed, w, r)
}

func respondTaskError(w http.ResponseWriter, taskID string, err error) {
	switch {
	case errors.Is(err, tasks.ErrTaskNotFound):
		RespondErrorDetail(w, http.StatusNotFound, "task not found", taskID)
	default:
		respondAsyncError(w, err)
	}
}
