package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/questhunt/questhunt/internal/hunt"
)

type GameRequest struct {
	ScenarioID int64     `json:"scenario_id"`
	Title      string    `json:"title"`
	BeginsAt   time.Time `json:"beginning_date"`
	EndsAt     time.Time `json:"end_date"`
}

type GameResponse struct {
	ID         int64  `json:"id"`
	ScenarioID int64  `json:"scenario_id"`
	Title      string `json:"title"`
	BeginsAt   string `json:"beginning_date"`
	EndsAt     string `json:"end_date"`
	CreatedAt  string `json:"created_at"`
}

func gameResponse(g hunt.Game) GameResponse {
	return GameResponse{
		ID:         g.ID,
		ScenarioID: g.ScenarioID,
		Title:      g.Title,
		BeginsAt:   g.BeginsAt.UTC().Format(time.RFC3339Nano),
		EndsAt:     g.EndsAt.UTC().Format(time.RFC3339Nano),
		CreatedAt:  g.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (req *GameRequest) validate() *ValidationError {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if req.ScenarioID == 0 {
		return &ValidationError{Field: "scenario_id", Message: "scenario_id is required"}
	}
	if !req.EndsAt.After(req.BeginsAt) {
		return &ValidationError{Field: "end_date", Message: "end_date must be after beginning_date"}
	}
	return nil
}

func handleListGames(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := store.ListGames(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		resp := []GameResponse{}
		for _, g := range games {
			resp = append(resp, gameResponse(g))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreateGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if verr := req.validate(); verr != nil {
			writeValidationError(w, verr)
			return
		}

		g, err := store.CreateGame(r.Context(), hunt.Game{
			ScenarioID: req.ScenarioID,
			Title:      req.Title,
			BeginsAt:   req.BeginsAt,
			EndsAt:     req.EndsAt,
		})
		if err != nil {
			var sverr *ValidationError
			if errors.As(err, &sverr) {
				writeValidationError(w, sverr)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, gameResponse(g))
	}
}

func handleGetGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		g, err := store.GetGame(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, gameResponse(g))
	}
}

func handleUpdateGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		var req GameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if verr := req.validate(); verr != nil {
			writeValidationError(w, verr)
			return
		}

		g, err := store.UpdateGame(r.Context(), id, hunt.Game{
			ScenarioID: req.ScenarioID,
			Title:      req.Title,
			BeginsAt:   req.BeginsAt,
			EndsAt:     req.EndsAt,
		})
		if err != nil {
			var sverr *ValidationError
			if errors.As(err, &sverr) {
				writeValidationError(w, sverr)
				return
			}
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "game not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, gameResponse(g))
	}
}

func handleDeleteGame(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}

		if err := store.DeleteGame(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "game not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
