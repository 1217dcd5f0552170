package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/questhunt/questhunt/internal/hunt"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// parseTime reads the RFC3339 timestamps SQLite's strftime produces.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func (s *SQLiteStore) ListScenarios(ctx context.Context) ([]hunt.Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, image, created_at
		FROM scenarios
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scenarios []hunt.Scenario
	for rows.Next() {
		var sc hunt.Scenario
		var createdAt string
		if err := rows.Scan(&sc.ID, &sc.Title, &sc.Description, &sc.Image, &createdAt); err != nil {
			return nil, err
		}
		sc.CreatedAt = parseTime(createdAt)
		scenarios = append(scenarios, sc)
	}
	return scenarios, rows.Err()
}

func (s *SQLiteStore) CreateScenario(ctx context.Context, sc hunt.Scenario) (hunt.Scenario, error) {
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO scenarios (title, description, image)
		VALUES (?, ?, ?)
		RETURNING id, created_at
	`, sc.Title, sc.Description, sc.Image).Scan(&sc.ID, &createdAt)
	if err != nil {
		return hunt.Scenario{}, err
	}
	sc.CreatedAt = parseTime(createdAt)
	return sc, nil
}

func (s *SQLiteStore) GetScenario(ctx context.Context, id int64) (hunt.Scenario, error) {
	var sc hunt.Scenario
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, image, created_at
		FROM scenarios WHERE id = ?
	`, id).Scan(&sc.ID, &sc.Title, &sc.Description, &sc.Image, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return sc, ErrNotFound
	}
	if err != nil {
		return sc, err
	}
	sc.CreatedAt = parseTime(createdAt)
	return sc, nil
}

func (s *SQLiteStore) UpdateScenario(ctx context.Context, id int64, sc hunt.Scenario) (hunt.Scenario, error) {
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		UPDATE scenarios SET title = ?, description = ?, image = ?
		WHERE id = ?
		RETURNING created_at
	`, sc.Title, sc.Description, sc.Image, id).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Scenario{}, ErrNotFound
	}
	if err != nil {
		return hunt.Scenario{}, err
	}
	sc.ID = id
	sc.CreatedAt = parseTime(createdAt)
	return sc, nil
}

func (s *SQLiteStore) DeleteScenario(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const taskColumns = `id, scenario_id, number, description, answer_kind, correct_answer, image, audio, created_at`

func scanTask(row interface{ Scan(...any) error }) (hunt.Task, error) {
	var t hunt.Task
	var scenarioID sql.NullInt64
	var createdAt string
	err := row.Scan(&t.ID, &scenarioID, &t.Number, &t.Description, &t.Kind,
		&t.CorrectAnswer, &t.Image, &t.Audio, &createdAt)
	if err != nil {
		return t, err
	}
	if scenarioID.Valid {
		t.ScenarioID = &scenarioID.Int64
	}
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s *SQLiteStore) ListTasks(ctx context.Context, scenarioID *int64) ([]hunt.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY number`
	args := []any{}
	if scenarioID != nil {
		query = `SELECT ` + taskColumns + ` FROM tasks WHERE scenario_id = ? ORDER BY number`
		args = append(args, *scenarioID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []hunt.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStore) GetTask(ctx context.Context, id int64) (hunt.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// CreateTask inserts a task into its scenario's number sequence. The
// existence check, the collision shift, and the insert run in one
// transaction so concurrent inserts into the same scenario cannot
// corrupt the dense numbering.
func (s *SQLiteStore) CreateTask(ctx context.Context, t hunt.Task, requested *int) (hunt.Task, error) {
	if t.ScenarioID == nil {
		return hunt.Task{}, &ValidationError{Field: "scenario", Message: "scenario id is required"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return hunt.Task{}, err
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM scenarios WHERE id = ?`, *t.ScenarioID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Task{}, ErrNotFound
	}
	if err != nil {
		return hunt.Task{}, err
	}

	var number int
	if requested == nil {
		var count int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tasks WHERE scenario_id = ?`, *t.ScenarioID).Scan(&count)
		if err != nil {
			return hunt.Task{}, err
		}
		number = hunt.NextNumber(count)
	} else {
		if *requested <= 0 {
			return hunt.Task{}, &ValidationError{Field: "number", Message: "number must be a positive integer"}
		}
		number = *requested

		var taken int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM tasks WHERE scenario_id = ? AND number = ?`, *t.ScenarioID, number).Scan(&taken)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// Free slot; no shift needed.
		case err != nil:
			return hunt.Task{}, err
		default:
			shift := hunt.InsertShift(number)
			_, err := tx.ExecContext(ctx, `
				UPDATE tasks SET number = number + ?
				WHERE scenario_id = ? AND number >= ?
			`, shift.Delta, *t.ScenarioID, shift.Lo)
			if err != nil {
				return hunt.Task{}, err
			}
		}
	}

	t.Number = number
	var createdAt string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tasks (scenario_id, number, description, answer_kind, correct_answer, image, audio)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, created_at
	`, *t.ScenarioID, t.Number, t.Description, t.Kind, t.CorrectAnswer, t.Image, t.Audio).Scan(&t.ID, &createdAt)
	if err != nil {
		return hunt.Task{}, err
	}
	t.CreatedAt = parseTime(createdAt)

	if err := tx.Commit(); err != nil {
		return hunt.Task{}, err
	}
	return t, nil
}

// UpdateTask rewrites a task's content fields and, when the number
// changes, rotates the scenario's sequence in the same transaction so
// the numbers stay a dense 1..N permutation.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id int64, t hunt.Task) (hunt.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return hunt.Task{}, err
	}
	defer tx.Rollback()

	cur, err := scanTask(tx.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Task{}, ErrNotFound
	}
	if err != nil {
		return hunt.Task{}, err
	}

	number := cur.Number
	if t.Number != 0 && t.Number != cur.Number {
		if t.Number < 0 {
			return hunt.Task{}, &ValidationError{Field: "number", Message: "number must be a positive integer"}
		}
		if shift, ok := hunt.RenumberShift(cur.Number, t.Number); ok {
			_, err := tx.ExecContext(ctx, `
				UPDATE tasks SET number = number + ?
				WHERE scenario_id IS ? AND number >= ? AND number <= ?
			`, shift.Delta, cur.ScenarioID, shift.Lo, shift.Hi)
			if err != nil {
				return hunt.Task{}, err
			}
		}
		number = t.Number
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET number = ?, description = ?, answer_kind = ?, correct_answer = ?, image = ?, audio = ?
		WHERE id = ?
	`, number, t.Description, t.Kind, t.CorrectAnswer, t.Image, t.Audio, id)
	if err != nil {
		return hunt.Task{}, err
	}

	if err := tx.Commit(); err != nil {
		return hunt.Task{}, err
	}

	t.ID = id
	t.ScenarioID = cur.ScenarioID
	t.Number = number
	t.CreatedAt = cur.CreatedAt
	return t, nil
}

// ShiftTaskNumbers moves every task in the given task's scenario
// numbered above it up by one. The task's own number is untouched.
func (s *SQLiteStore) ShiftTaskNumbers(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cur, err := scanTask(tx.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	shift := hunt.ShiftFromWindow(cur.Number)
	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET number = number + ?
		WHERE scenario_id IS ? AND number >= ?
	`, shift.Delta, cur.ScenarioID, shift.Lo)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetAnswerImage(ctx context.Context, id int64) (hunt.AnswerImage, error) {
	var img hunt.AnswerImage
	err := s.db.QueryRowContext(ctx, `
		SELECT id, task_id, image, is_correct FROM answer_images WHERE id = ?
	`, id).Scan(&img.ID, &img.TaskID, &img.Image, &img.IsCorrect)
	if errors.Is(err, sql.ErrNoRows) {
		return img, ErrNotFound
	}
	return img, err
}

func (s *SQLiteStore) ListAnswerImages(ctx context.Context, taskID int64, isCorrect *bool) ([]hunt.AnswerImage, error) {
	query := `SELECT id, task_id, image, is_correct FROM answer_images WHERE task_id = ?`
	args := []any{taskID}
	if isCorrect != nil {
		query += ` AND is_correct = ?`
		args = append(args, *isCorrect)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []hunt.AnswerImage
	for rows.Next() {
		var img hunt.AnswerImage
		if err := rows.Scan(&img.ID, &img.TaskID, &img.Image, &img.IsCorrect); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLiteStore) CreateAnswerImage(ctx context.Context, img hunt.AnswerImage) (hunt.AnswerImage, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, img.TaskID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.AnswerImage{}, ErrNotFound
	}
	if err != nil {
		return hunt.AnswerImage{}, err
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO answer_images (task_id, image, is_correct)
		VALUES (?, ?, ?)
		RETURNING id
	`, img.TaskID, img.Image, img.IsCorrect).Scan(&img.ID)
	if err != nil {
		return hunt.AnswerImage{}, err
	}
	return img, nil
}

func (s *SQLiteStore) DeleteAnswerImage(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM answer_images WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) ListGames(ctx context.Context) ([]hunt.Game, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario_id, title, begins_at, ends_at, created_at
		FROM games
		ORDER BY begins_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []hunt.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func scanGame(row interface{ Scan(...any) error }) (hunt.Game, error) {
	var g hunt.Game
	var beginsAt, endsAt, createdAt string
	err := row.Scan(&g.ID, &g.ScenarioID, &g.Title, &beginsAt, &endsAt, &createdAt)
	if err != nil {
		return g, err
	}
	g.BeginsAt = parseTime(beginsAt)
	g.EndsAt = parseTime(endsAt)
	g.CreatedAt = parseTime(createdAt)
	return g, nil
}

func (s *SQLiteStore) CreateGame(ctx context.Context, g hunt.Game) (hunt.Game, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM scenarios WHERE id = ?`, g.ScenarioID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Game{}, &ValidationError{Field: "scenario_id", Message: "scenario does not exist"}
	}
	if err != nil {
		return hunt.Game{}, err
	}

	var createdAt string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO games (scenario_id, title, begins_at, ends_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at
	`, g.ScenarioID, g.Title,
		g.BeginsAt.UTC().Format(time.RFC3339Nano),
		g.EndsAt.UTC().Format(time.RFC3339Nano)).Scan(&g.ID, &createdAt)
	if err != nil {
		return hunt.Game{}, err
	}
	g.CreatedAt = parseTime(createdAt)
	return g, nil
}

func (s *SQLiteStore) GetGame(ctx context.Context, id int64) (hunt.Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx, `
		SELECT id, scenario_id, title, begins_at, ends_at, created_at
		FROM games WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	return g, err
}

func (s *SQLiteStore) UpdateGame(ctx context.Context, id int64, g hunt.Game) (hunt.Game, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM scenarios WHERE id = ?`, g.ScenarioID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Game{}, &ValidationError{Field: "scenario_id", Message: "scenario does not exist"}
	}
	if err != nil {
		return hunt.Game{}, err
	}

	var createdAt string
	err = s.db.QueryRowContext(ctx, `
		UPDATE games SET scenario_id = ?, title = ?, begins_at = ?, ends_at = ?
		WHERE id = ?
		RETURNING created_at
	`, g.ScenarioID, g.Title,
		g.BeginsAt.UTC().Format(time.RFC3339Nano),
		g.EndsAt.UTC().Format(time.RFC3339Nano), id).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Game{}, ErrNotFound
	}
	if err != nil {
		return hunt.Game{}, err
	}
	g.ID = id
	g.CreatedAt = parseTime(createdAt)
	return g, nil
}

func (s *SQLiteStore) DeleteGame(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateTeam(ctx context.Context, t hunt.Team) (hunt.Team, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM games WHERE id = ?`, t.GameID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return hunt.Team{}, ErrNotFound
	}
	if err != nil {
		return hunt.Team{}, err
	}

	var createdAt string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO teams (game_id, user_id, players_number)
		VALUES (?, ?, ?)
		RETURNING id, created_at
	`, t.GameID, t.UserID, t.PlayersNumber).Scan(&t.ID, &createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return hunt.Team{}, ErrTeamExists
		}
		return hunt.Team{}, err
	}
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s *SQLiteStore) GetTeam(ctx context.Context, id int64) (hunt.Team, error) {
	var t hunt.Team
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, game_id, user_id, players_number, created_at
		FROM teams WHERE id = ?
	`, id).Scan(&t.ID, &t.GameID, &t.UserID, &t.PlayersNumber, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.CreatedAt = parseTime(createdAt)
	return t, nil
}

func (s *SQLiteStore) ListTeams(ctx context.Context, gameID *int64) ([]hunt.Team, error) {
	query := `SELECT id, game_id, user_id, players_number, created_at FROM teams ORDER BY id`
	args := []any{}
	if gameID != nil {
		query = `SELECT id, game_id, user_id, players_number, created_at FROM teams WHERE game_id = ? ORDER BY id`
		args = append(args, *gameID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []hunt.Team
	for rows.Next() {
		var t hunt.Team
		var createdAt string
		if err := rows.Scan(&t.ID, &t.GameID, &t.UserID, &t.PlayersNumber, &createdAt); err != nil {
			return nil, err
		}
		t.CreatedAt = parseTime(createdAt)
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *SQLiteStore) DeleteTeam(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateCompletion(ctx context.Context, teamID, taskID int64) (hunt.CompletedTask, error) {
	var c hunt.CompletedTask

	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM teams WHERE id = ?`, teamID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("team %d: %w", teamID, ErrNotFound)
	}
	if err != nil {
		return c, err
	}

	err = s.db.QueryRowContext(ctx, `SELECT number FROM tasks WHERE id = ?`, taskID).Scan(&c.TaskNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("task %d: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return c, err
	}

	var completedAt string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO completed_tasks (team_id, task_id)
		VALUES (?, ?)
		RETURNING id, completed_at
	`, teamID, taskID).Scan(&c.ID, &completedAt)
	if err != nil {
		return c, err
	}
	c.TeamID = teamID
	c.TaskID = taskID
	c.CompletedAt = parseTime(completedAt)
	return c, nil
}

func (s *SQLiteStore) ListCompletions(ctx context.Context, teamID, taskID *int64) ([]hunt.CompletedTask, error) {
	query := `
		SELECT c.id, c.team_id, c.task_id, t.number, c.completed_at
		FROM completed_tasks c
		JOIN tasks t ON t.id = c.task_id
	`
	var conds []string
	var args []any
	if teamID != nil {
		conds = append(conds, "c.team_id = ?")
		args = append(args, *teamID)
	}
	if taskID != nil {
		conds = append(conds, "c.task_id = ?")
		args = append(args, *taskID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY c.id"

	return s.queryCompletions(ctx, query, args...)
}

func (s *SQLiteStore) TeamCompletions(ctx context.Context, teamID, scenarioID int64) ([]hunt.CompletedTask, error) {
	return s.queryCompletions(ctx, `
		SELECT c.id, c.team_id, c.task_id, t.number, c.completed_at
		FROM completed_tasks c
		JOIN tasks t ON t.id = c.task_id
		WHERE c.team_id = ? AND t.scenario_id = ?
		ORDER BY t.number
	`, teamID, scenarioID)
}

func (s *SQLiteStore) queryCompletions(ctx context.Context, query string, args ...any) ([]hunt.CompletedTask, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var completions []hunt.CompletedTask
	for rows.Next() {
		var c hunt.CompletedTask
		var completedAt string
		if err := rows.Scan(&c.ID, &c.TeamID, &c.TaskID, &c.TaskNumber, &completedAt); err != nil {
			return nil, err
		}
		c.CompletedAt = parseTime(completedAt)
		completions = append(completions, c)
	}
	return completions, rows.Err()
}
