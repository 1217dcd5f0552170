package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, store Store, broker *Broker, db *sql.DB, rdb *redis.Client, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("QuestHunt API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db, rdb))

	r.Route("/api", func(r chi.Router) {
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", handleListScenarios(store))
			r.Post("/", handleCreateScenario(store))
			r.Get("/{id}", handleGetScenario(store))
			r.Put("/{id}", handleUpdateScenario(store))
			r.Delete("/{id}", handleDeleteScenario(store))
			r.Get("/{id}/tasks", handleScenarioTasks(store))
			r.Post("/{id}/tasks", handleScenarioAddTask(store))
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", handleListTasks(store))
			r.Post("/", handleCreateTask(store))
			r.Get("/check_answer", handleCheckAnswer(store, logger))
			r.Get("/{id}", handleGetTask(store))
			r.Put("/{id}", handleUpdateTask(store))
			r.Delete("/{id}", handleDeleteTask(store))
			r.Post("/{id}/shift_numbers", handleShiftTaskNumbers(store))
		})

		r.Route("/answerimages", func(r chi.Router) {
			r.Get("/", handleListAnswerImages(store))
			r.Post("/", handleCreateAnswerImage(store))
			r.Delete("/{id}", handleDeleteAnswerImage(store))
		})

		r.Route("/games", func(r chi.Router) {
			r.Get("/", handleListGames(store))
			r.Post("/", handleCreateGame(store))
			r.Get("/{id}", handleGetGame(store))
			r.Put("/{id}", handleUpdateGame(store))
			r.Delete("/{id}", handleDeleteGame(store))
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", handleListTeams(store))
			r.Post("/", handleCreateTeam(store))
			r.Get("/{id}", handleGetTeam(store))
			r.Delete("/{id}", handleDeleteTeam(store))
		})

		r.Route("/task-completion", func(r chi.Router) {
			r.Get("/", handleListCompletions(store))
			r.Post("/", handleCreateCompletion(store, broker))
			r.Get("/current-task", handleCurrentTask(store))
		})

		r.Get("/events", handleEvents(store, broker))
	})

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
