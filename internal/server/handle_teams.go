package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/questhunt/questhunt/internal/hunt"
)

type TeamRequest struct {
	Game          int64 `json:"game"`
	User          int64 `json:"user"`
	PlayersNumber int   `json:"players_number"`
}

type TeamResponse struct {
	ID            int64  `json:"id"`
	Game          int64  `json:"game"`
	User          int64  `json:"user"`
	PlayersNumber int    `json:"players_number"`
	CreatedAt     string `json:"created_at"`
}

func teamResponse(t hunt.Team) TeamResponse {
	return TeamResponse{
		ID:            t.ID,
		Game:          t.GameID,
		User:          t.UserID,
		PlayersNumber: t.PlayersNumber,
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func handleListTeams(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var gameID *int64
		if raw := r.URL.Query().Get("game"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				writeValidationError(w, &ValidationError{Field: "game", Message: "game must be an integer"})
				return
			}
			gameID = &id
		}

		teams, err := store.ListTeams(r.Context(), gameID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		resp := []TeamResponse{}
		for _, t := range teams {
			resp = append(resp, teamResponse(t))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleCreateTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TeamRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Game == 0 {
			writeValidationError(w, &ValidationError{Field: "game", Message: "game is required"})
			return
		}
		if req.User == 0 {
			writeValidationError(w, &ValidationError{Field: "user", Message: "user is required"})
			return
		}
		if req.PlayersNumber <= 0 {
			req.PlayersNumber = 1
		}

		team, err := store.CreateTeam(r.Context(), hunt.Team{
			GameID:        req.Game,
			UserID:        req.User,
			PlayersNumber: req.PlayersNumber,
		})
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if errors.Is(err, ErrTeamExists) {
			writeError(w, http.StatusBadRequest, ErrTeamExists.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, teamResponse(team))
	}
}

func handleGetTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}

		team, err := store.GetTeam(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, teamResponse(team))
	}
}

func handleDeleteTeam(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusNotFound, "team not found")
			return
		}

		if err := store.DeleteTeam(r.Context(), id); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "team not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
