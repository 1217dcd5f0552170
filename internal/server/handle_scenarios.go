package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/questhunt/questhunt/internal/hunt"
)

type ScenarioRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	Tasks       []TaskRequest `json:"tasks,omitempty"`
}

type ScenarioResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       string  `json:"image,omitempty"`
	Tasks       []int64 `json:"tasks"`
	CreatedAt   string  `json:"created_at"`
}

func scenarioResponse(sc hunt.Scenario, taskIDs []int64) ScenarioResponse {
	if taskIDs == nil {
		taskIDs = []int64{}
	}
	return ScenarioResponse{
		ID:          sc.ID,
		Title:       sc.Title,
		Description: sc.Description,
		Image:       sc.Image,
		Tasks:       taskIDs,
		CreatedAt:   sc.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (req *ScenarioRequest) validate() *ValidationError {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	return nil
}

func handleListScenarios(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scenarios, err := store.ListScenarios(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		tasks, err := store.ListTasks(r.Context(), nil)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		byScenario := make(map[int64][]int64)
		for _, t := range tasks {
			if t.ScenarioID != nil {
				byScenario[*t.ScenarioID] = append(byScenario[*t.ScenarioID], t.ID)
			}
		}

		resp := []ScenarioResponse{}
		for _, sc := range scenarios {
			resp = append(resp, scenarioResponse(sc, byScenario[sc.ID]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreateScenario(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScenarioRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if verr := req.validate(); verr != nil {
			writeValidationError(w, verr)
			return
		}

		sc, err := store.CreateScenario(r.Context(), hunt.Scenario{
			Title:       req.Title,
			Description: req.Description,
			Image:       req.Image,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// Nested tasks go through the sequencer like any other insert.
		var taskIDs []int64
		for i := range req.Tasks {
			req.Tasks[i].Scenario = &sc.ID
			created, verr, err := createTask(r, store, &req.Tasks[i])
			if verr != nil {
				writeValidationError(w, verr)
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			taskIDs = append(taskIDs, created.ID)
		}

		writeJSON(w, http.StatusCreated, scenarioResponse(sc, taskIDs))
	}
}

func handleGetScenario(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "scenario not found")
			return
		}

		sc, err := store.GetScenario(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "scenario not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		tasks, err := store.ListTasks(r.Context(), &id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		taskIDs := make([]int64, 0, len(tasks))
		for _, t := range tasks {
			taskIDs = append(taskIDs, t.ID)
		}

		writeJSON(w, http.StatusOK, scenarioResponse(sc, taskIDs))
	}
}

func handleUpdateScenario(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "scenario not found")
			return
		}

		var req ScenarioRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if verr := req.validate(); verr != nil {
			writeValidationError(w, verr)
			return
		}

		sc, err := store.UpdateScenario(r.Context(), id, hunt.Scenario{
			Title:       req.Title,
			Description: req.Description,
			Image:       req.Image,
		})
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "scenario not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		tasks, err := store.ListTasks(r.Context(), &id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		taskIDs := make([]int64, 0, len(tasks))
		for _, t := range tasks {
			taskIDs = append(taskIDs, t.ID)
		}

		writeJSON(w, http.StatusOK, scenarioResponse(sc, taskIDs))
	}
}

func handleDeleteScenario(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "scenario not found")
			return
		}

		// Tasks go with the scenario via the FK cascade.
		if err := store.DeleteScenario(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "scenario not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleScenarioTasks lists a scenario's tasks ordered by number.
func handleScenarioTasks(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "scenario not found")
			return
		}
		if _, err := store.GetScenario(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "scenario not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		tasks, err := store.ListTasks(r.Context(), &id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := []TaskResponse{}
		for _, t := range tasks {
			resp = append(resp, taskResponse(t))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// handleScenarioAddTask creates a task inside the scenario from the
// URL, overriding any scenario in the body.
func handleScenarioAddTask(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "scenario not found")
			return
		}

		var req TaskRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Scenario = &id

		created, verr, err := createTask(r, store, &req)
		if verr != nil {
			writeValidationError(w, verr)
			return
		}
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "scenario not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusCreated, taskResponse(created))
	}
}
