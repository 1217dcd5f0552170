package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/questhunt/questhunt/internal/hunt"
)

type CompletionRequest struct {
	Team int64 `json:"team"`
	Task int64 `json:"task"`
}

type CompletionResponse struct {
	ID          int64  `json:"id"`
	Team        int64  `json:"team"`
	Task        int64  `json:"task"`
	CompletedAt string `json:"completed_at"`
}

func completionResponse(c hunt.CompletedTask) CompletionResponse {
	return CompletionResponse{
		ID:          c.ID,
		Team:        c.TeamID,
		Task:        c.TaskID,
		CompletedAt: c.CompletedAt.UTC().Format(time.RFC3339Nano),
	}
}

// CurrentTaskResponse reports where a team stands in a scenario.
// CurrentTask is a task view while the hunt is running and an empty
// object once it has ended.
type CurrentTaskResponse struct {
	Ended       bool    `json:"ended"`
	Percentage  float64 `json:"percentage"`
	CurrentTask any     `json:"current_task"`
}

func handleCreateCompletion(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CompletionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Team == 0 {
			writeValidationError(w, &ValidationError{Field: "team", Message: "team is required"})
			return
		}
		if req.Task == 0 {
			writeValidationError(w, &ValidationError{Field: "task", Message: "task is required"})
			return
		}

		c, err := store.CreateCompletion(r.Context(), req.Team, req.Task)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(r.Context(), c.TeamID, Event{
			Type:       "task_completed",
			TaskID:     c.TaskID,
			TaskNumber: c.TaskNumber,
			TeamID:     c.TeamID,
		})

		writeJSON(w, http.StatusCreated, completionResponse(c))
	}
}

func handleListCompletions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		var teamID, taskID *int64
		if raw := q.Get("team"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeValidationError(w, &ValidationError{Field: "team", Message: "team must be an integer"})
				return
			}
			teamID = &id
		}
		if raw := q.Get("task"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeValidationError(w, &ValidationError{Field: "task", Message: "task must be an integer"})
				return
			}
			taskID = &id
		}

		completions, err := store.ListCompletions(r.Context(), teamID, taskID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := []CompletionResponse{}
		for _, c := range completions {
			resp = append(resp, completionResponse(c))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleCurrentTask computes a team's next task in a scenario along
// with its fraction of completed tasks. The response never carries the
// correct answer.
func handleCurrentTask(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		teamID, err := strconv.ParseInt(q.Get("team"), 10, 64)
		if err != nil {
			writeValidationError(w, &ValidationError{Field: "team", Message: "team must be an integer"})
			return
		}
		scenarioID, err := strconv.ParseInt(q.Get("scenario"), 10, 64)
		if err != nil {
			writeValidationError(w, &ValidationError{Field: "scenario", Message: "scenario must be an integer"})
			return
		}

		if _, err := store.GetTeam(r.Context(), teamID); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "team not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if _, err := store.GetScenario(r.Context(), scenarioID); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "scenario not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		tasks, err := store.ListTasks(r.Context(), &scenarioID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		completed, err := store.TeamCompletions(r.Context(), teamID, scenarioID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		progress := hunt.ComputeProgress(tasks, completed)
		resp := CurrentTaskResponse{
			Ended:       progress.Ended,
			Percentage:  progress.Percentage,
			CurrentTask: struct{}{},
		}
		if progress.Current != nil {
			resp.CurrentTask = taskView(*progress.Current)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
