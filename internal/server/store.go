package server

import (
	"context"
	"errors"

	"github.com/questhunt/questhunt/internal/hunt"
)

// ErrNotFound is returned when a referenced scenario, task, image,
// game, or team does not exist.
var ErrNotFound = errors.New("not found")

// ErrTeamExists is returned when a user already has a team in a game.
var ErrTeamExists = errors.New("user already has a team in this game")

// ValidationError reports a missing or malformed field. Handlers map
// it to a 400 with the field name attached.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Store is the persistence contract for the hunt API. Mutating task
// operations run the sequencing logic inside a single transaction so
// the dense-numbering invariant is never observable mid-shift.
type Store interface {
	ListScenarios(ctx context.Context) ([]hunt.Scenario, error)
	CreateScenario(ctx context.Context, sc hunt.Scenario) (hunt.Scenario, error)
	GetScenario(ctx context.Context, id int64) (hunt.Scenario, error)
	UpdateScenario(ctx context.Context, id int64, sc hunt.Scenario) (hunt.Scenario, error)
	DeleteScenario(ctx context.Context, id int64) error

	// ListTasks returns tasks ordered by number; a non-nil scenarioID
	// restricts the list to one scenario.
	ListTasks(ctx context.Context, scenarioID *int64) ([]hunt.Task, error)
	GetTask(ctx context.Context, id int64) (hunt.Task, error)
	// CreateTask inserts a task into its scenario's sequence. With a
	// nil requested number the task is appended; with a taken number
	// every task at or above it shifts up first.
	CreateTask(ctx context.Context, t hunt.Task, requested *int) (hunt.Task, error)
	// UpdateTask rewrites a task's fields. A zero number keeps the
	// current one; a changed number rotates the scenario's sequence so
	// it stays dense. Callers validate that an explicit number is
	// positive before it gets here.
	UpdateTask(ctx context.Context, id int64, t hunt.Task) (hunt.Task, error)
	// ShiftTaskNumbers moves every task in the same scenario numbered
	// above the given task up by one.
	ShiftTaskNumbers(ctx context.Context, id int64) error
	// DeleteTask removes a task without renumbering the remainder.
	DeleteTask(ctx context.Context, id int64) error

	GetAnswerImage(ctx context.Context, id int64) (hunt.AnswerImage, error)
	ListAnswerImages(ctx context.Context, taskID int64, isCorrect *bool) ([]hunt.AnswerImage, error)
	CreateAnswerImage(ctx context.Context, img hunt.AnswerImage) (hunt.AnswerImage, error)
	DeleteAnswerImage(ctx context.Context, id int64) error

	ListGames(ctx context.Context) ([]hunt.Game, error)
	CreateGame(ctx context.Context, g hunt.Game) (hunt.Game, error)
	GetGame(ctx context.Context, id int64) (hunt.Game, error)
	UpdateGame(ctx context.Context, id int64, g hunt.Game) (hunt.Game, error)
	DeleteGame(ctx context.Context, id int64) error

	// CreateTeam enforces at most one team per (user, game).
	CreateTeam(ctx context.Context, t hunt.Team) (hunt.Team, error)
	GetTeam(ctx context.Context, id int64) (hunt.Team, error)
	ListTeams(ctx context.Context, gameID *int64) ([]hunt.Team, error)
	DeleteTeam(ctx context.Context, id int64) error

	CreateCompletion(ctx context.Context, teamID, taskID int64) (hunt.CompletedTask, error)
	ListCompletions(ctx context.Context, teamID, taskID *int64) ([]hunt.CompletedTask, error)
	// TeamCompletions returns a team's completions restricted to one
	// scenario, with task numbers attached.
	TeamCompletions(ctx context.Context, teamID, scenarioID int64) ([]hunt.CompletedTask, error)
}
