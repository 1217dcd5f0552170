package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/questhunt/questhunt/internal/hunt"
)

type AnswerImageRequest struct {
	Task      int64  `json:"task"`
	Image     string `json:"image"`
	IsCorrect bool   `json:"is_correct"`
}

type AnswerImageResponse struct {
	ID        int64  `json:"id"`
	Task      int64  `json:"task"`
	Image     string `json:"image"`
	IsCorrect bool   `json:"is_correct"`
}

func answerImageResponse(img hunt.AnswerImage) AnswerImageResponse {
	return AnswerImageResponse{
		ID:        img.ID,
		Task:      img.TaskID,
		Image:     img.Image,
		IsCorrect: img.IsCorrect,
	}
}

func handleListAnswerImages(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		taskID, err := strconv.ParseInt(q.Get("task"), 10, 64)
		if err != nil {
			writeValidationError(w, &ValidationError{Field: "task", Message: "task must be an integer"})
			return
		}

		var isCorrect *bool
		if raw := q.Get("is_correct"); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				writeValidationError(w, &ValidationError{Field: "is_correct", Message: "is_correct must be a boolean"})
				return
			}
			isCorrect = &v
		}

		images, err := store.ListAnswerImages(r.Context(), taskID, isCorrect)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := []AnswerImageResponse{}
		for _, img := range images {
			resp = append(resp, answerImageResponse(img))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreateAnswerImage(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerImageRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Task == 0 {
			writeValidationError(w, &ValidationError{Field: "task", Message: "task is required"})
			return
		}

		img, err := store.CreateAnswerImage(r.Context(), hunt.AnswerImage{
			TaskID:    req.Task,
			Image:     req.Image,
			IsCorrect: req.IsCorrect,
		})
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, answerImageResponse(img))
	}
}

func handleDeleteAnswerImage(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "answer image not found")
			return
		}

		if err := store.DeleteAnswerImage(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "answer image not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
