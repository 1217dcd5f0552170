package server

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/questhunt/questhunt/internal/hunt"
)

type TaskRequest struct {
	Scenario *int64 `json:"scenario"`
	// Number is untyped so a string like "3" from form-ish clients is
	// accepted alongside a JSON number.
	Number        any    `json:"number,omitempty"`
	Description   string `json:"description"`
	AnswerType    string `json:"answer_type"`
	CorrectAnswer string `json:"correct_answer"`
	Image         string `json:"image"`
	Audio         string `json:"audio"`
}

type TaskResponse struct {
	ID            int64  `json:"id"`
	Scenario      *int64 `json:"scenario"`
	Number        int    `json:"number"`
	Description   string `json:"description"`
	AnswerType    string `json:"answer_type"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
	Image         string `json:"image,omitempty"`
	Audio         string `json:"audio,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func taskResponse(t hunt.Task) TaskResponse {
	return TaskResponse{
		ID:            t.ID,
		Scenario:      t.ScenarioID,
		Number:        t.Number,
		Description:   t.Description,
		AnswerType:    string(t.Kind),
		CorrectAnswer: t.CorrectAnswer,
		Image:         t.Image,
		Audio:         t.Audio,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// taskView is the player-facing shape: same as taskResponse but with
// the correct answer withheld.
func taskView(t hunt.Task) TaskResponse {
	resp := taskResponse(t)
	resp.CorrectAnswer = ""
	return resp
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

// requestedNumber coerces the untyped number field to an int pointer.
// A nil field means "append".
func (req *TaskRequest) requestedNumber() (*int, *ValidationError) {
	verr := &ValidationError{Field: "number", Message: "number must be an integer"}
	switch v := req.Number.(type) {
	case nil:
		return nil, nil
	case float64:
		if v != math.Trunc(v) {
			return nil, verr
		}
		n := int(v)
		return &n, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, verr
		}
		return &n, nil
	default:
		return nil, verr
	}
}

func (req *TaskRequest) kind() (hunt.AnswerKind, *ValidationError) {
	if req.AnswerType == "" {
		return hunt.AnswerKindText, nil
	}
	k := hunt.AnswerKind(req.AnswerType)
	if !k.Valid() {
		return "", &ValidationError{Field: "answer_type", Message: "unknown answer type"}
	}
	return k, nil
}

// createTask validates a task request and inserts it through the
// store's sequencer. Shared between the /tasks and /scenarios paths.
func createTask(r *http.Request, store Store, req *TaskRequest) (hunt.Task, *ValidationError, error) {
	if req.Scenario == nil {
		return hunt.Task{}, &ValidationError{Field: "scenario", Message: "scenario is required"}, nil
	}
	requested, verr := req.requestedNumber()
	if verr != nil {
		return hunt.Task{}, verr, nil
	}
	kind, verr := req.kind()
	if verr != nil {
		return hunt.Task{}, verr, nil
	}

	created, err := store.CreateTask(r.Context(), hunt.Task{
		ScenarioID:    req.Scenario,
		Description:   req.Description,
		Kind:          kind,
		CorrectAnswer: req.CorrectAnswer,
		Image:         req.Image,
		Audio:         req.Audio,
	}, requested)
	if err != nil {
		var sverr *ValidationError
		if errors.As(err, &sverr) {
			return hunt.Task{}, sverr, nil
		}
		return hunt.Task{}, nil, err
	}
	return created, nil, nil
}

func handleListTasks(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var scenarioID *int64
		if raw := r.URL.Query().Get("scenario"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeValidationError(w, &ValidationError{Field: "scenario", Message: "scenario must be an integer"})
				return
			}
			scenarioID = &id
		}

		tasks, err := store.ListTasks(r.Context(), scenarioID)
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

func handleCreateTask(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TaskRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

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

func handleGetTask(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}

		t, err := store.GetTask(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, taskResponse(t))
	}
}

func handleUpdateTask(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}

		var req TaskRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		requested, verr := req.requestedNumber()
		if verr != nil {
			writeValidationError(w, verr)
			return
		}
		// Zero is not "keep the current number"; omitting the field is.
		if requested != nil && *requested <= 0 {
			writeValidationError(w, &ValidationError{Field: "number", Message: "number must be a positive integer"})
			return
		}
		kind, verr := req.kind()
		if verr != nil {
			writeValidationError(w, verr)
			return
		}

		next := hunt.Task{
			ScenarioID:    req.Scenario,
			Description:   req.Description,
			Kind:          kind,
			CorrectAnswer: req.CorrectAnswer,
			Image:         req.Image,
			Audio:         req.Audio,
		}
		if requested != nil {
			next.Number = *requested
		}

		updated, err := store.UpdateTask(r.Context(), id, next)
		if err != nil {
			var sverr *ValidationError
			if errors.As(err, &sverr) {
				writeValidationError(w, sverr)
				return
			}
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "task not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, taskResponse(updated))
	}
}

func handleDeleteTask(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}

		if err := store.DeleteTask(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "task not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleShiftTaskNumbers opens a gap above the task: every later task
// in the same scenario moves up by one.
func handleShiftTaskNumbers(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}

		if err := store.ShiftTaskNumbers(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "task not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "numbers updated"})
	}
}

// handleCheckAnswer verifies a submitted answer against a task. The
// verdict is always {"is_correct": bool}; malformed input is a 400 and
// an unknown task or image a 404, never a silent false.
func handleCheckAnswer(store Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		taskID, err := strconv.ParseInt(q.Get("task_id"), 10, 64)
		if err != nil {
			writeValidationError(w, &ValidationError{Field: "task_id", Message: "task_id must be an integer"})
			return
		}
		kind := hunt.AnswerKind(q.Get("answer_type"))
		if !kind.Valid() {
			writeValidationError(w, &ValidationError{Field: "answer_type", Message: "unknown answer type"})
			return
		}
		answer := q.Get("answer")

		task, err := store.GetTask(r.Context(), taskID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		var verifier hunt.Verifier
		switch kind {
		case hunt.AnswerKindText:
			verifier = hunt.TextAnswer{Correct: task.CorrectAnswer}
		case hunt.AnswerKindLocation:
			verifier = hunt.LocationAnswer{Correct: task.CorrectAnswer, Tolerance: hunt.DefaultLocationTolerance}
		case hunt.AnswerKindImage:
			imageID, err := strconv.ParseInt(answer, 10, 64)
			if err != nil {
				writeValidationError(w, &ValidationError{Field: "answer", Message: "answer must be an image id"})
				return
			}
			img, err := store.GetAnswerImage(r.Context(), imageID)
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "answer image not found")
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			verifier = hunt.ImageAnswer{IsCorrect: img.IsCorrect}
		}

		ok, err := verifier.Verify(answer)
		if errors.Is(err, hunt.ErrMalformedCoordinate) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			logger.Error("verifying answer", "task_id", taskID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"is_correct": ok})
	}
}
