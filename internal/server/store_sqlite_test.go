package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/questhunt/questhunt/internal/database"
	"github.com/questhunt/questhunt/internal/hunt"
	"github.com/questhunt/questhunt/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// Each pool connection would otherwise get its own memory database.
	db.SetMaxOpenConns(1)

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	return NewSQLiteStore(setupTestDB(t))
}

func intp(n int) *int { return &n }

func seedScenario(t *testing.T, store *SQLiteStore) hunt.Scenario {
	t.Helper()
	sc, err := store.CreateScenario(context.Background(), hunt.Scenario{Title: "Old Town"})
	if err != nil {
		t.Fatalf("create scenario: %v", err)
	}
	return sc
}

func seedTask(t *testing.T, store *SQLiteStore, scenarioID int64, desc string, number *int) hunt.Task {
	t.Helper()
	task, err := store.CreateTask(context.Background(), hunt.Task{
		ScenarioID:  &scenarioID,
		Description: desc,
		Kind:        hunt.AnswerKindText,
	}, number)
	if err != nil {
		t.Fatalf("create task %q: %v", desc, err)
	}
	return task
}

// numbersByDesc reads back the scenario's tasks keyed by description.
func numbersByDesc(t *testing.T, store *SQLiteStore, scenarioID int64) map[string]int {
	t.Helper()
	tasks, err := store.ListTasks(context.Background(), &scenarioID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	got := make(map[string]int, len(tasks))
	for _, task := range tasks {
		got[task.Description] = task.Number
	}
	return got
}

func assertNumbers(t *testing.T, got, want map[string]int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %d: %v", len(want), len(got), got)
	}
	for desc, n := range want {
		if got[desc] != n {
			t.Errorf("task %q: expected number %d, got %d", desc, n, got[desc])
		}
	}
}

func TestCreateTaskAppends(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)

	for i, desc := range []string{"a", "b", "c"} {
		task := seedTask(t, store, sc.ID, desc, nil)
		if task.Number != i+1 {
			t.Errorf("task %q: expected number %d, got %d", desc, i+1, task.Number)
		}
	}
}

func TestCreateTaskCollisionShifts(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)
	seedTask(t, store, sc.ID, "a", nil)
	seedTask(t, store, sc.ID, "b", nil)
	seedTask(t, store, sc.ID, "c", nil)

	inserted := seedTask(t, store, sc.ID, "x", intp(2))
	if inserted.Number != 2 {
		t.Errorf("expected inserted task at 2, got %d", inserted.Number)
	}

	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{
		"a": 1, "x": 2, "b": 3, "c": 4,
	})
}

func TestCreateTaskFreeSlotNoShift(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)
	seedTask(t, store, sc.ID, "a", nil)

	// Number 5 is free; nothing moves.
	task := seedTask(t, store, sc.ID, "b", intp(5))
	if task.Number != 5 {
		t.Errorf("expected number 5, got %d", task.Number)
	}
	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{"a": 1, "b": 5})
}

func TestCreateTaskValidation(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)

	var verr *ValidationError
	_, err := store.CreateTask(context.Background(), hunt.Task{Kind: hunt.AnswerKindText}, nil)
	if !errors.As(err, &verr) || verr.Field != "scenario" {
		t.Errorf("expected scenario validation error, got %v", err)
	}

	_, err = store.CreateTask(context.Background(), hunt.Task{
		ScenarioID: &sc.ID, Kind: hunt.AnswerKindText,
	}, intp(0))
	if !errors.As(err, &verr) || verr.Field != "number" {
		t.Errorf("expected number validation error, got %v", err)
	}

	missing := sc.ID + 100
	_, err = store.CreateTask(context.Background(), hunt.Task{
		ScenarioID: &missing, Kind: hunt.AnswerKindText,
	}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown scenario, got %v", err)
	}
}

func TestUpdateTaskRenumberUp(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)
	a := seedTask(t, store, sc.ID, "a", nil)
	seedTask(t, store, sc.ID, "b", nil)
	seedTask(t, store, sc.ID, "c", nil)

	updated, err := store.UpdateTask(context.Background(), a.ID, hunt.Task{
		Number: 3, Description: "a", Kind: hunt.AnswerKindText,
	})
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Number != 3 {
		t.Errorf("expected number 3, got %d", updated.Number)
	}

	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{
		"b": 1, "c": 2, "a": 3,
	})
}

func TestUpdateTaskRenumberDown(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)
	seedTask(t, store, sc.ID, "a", nil)
	seedTask(t, store, sc.ID, "b", nil)
	c := seedTask(t, store, sc.ID, "c", nil)

	if _, err := store.UpdateTask(context.Background(), c.ID, hunt.Task{
		Number: 1, Description: "c", Kind: hunt.AnswerKindText,
	}); err != nil {
		t.Fatalf("update task: %v", err)
	}

	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{
		"c": 1, "a": 2, "b": 3,
	})
}

func TestUpdateTaskSameNumberNoOp(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)
	a := seedTask(t, store, sc.ID, "a", nil)
	seedTask(t, store, sc.ID, "b", nil)

	if _, err := store.UpdateTask(context.Background(), a.ID, hunt.Task{
		Number: 1, Description: "a updated", Kind: hunt.AnswerKindText,
	}); err != nil {
		t.Fatalf("update task: %v", err)
	}

	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{
		"a updated": 1, "b": 2,
	})
}

func TestShiftTaskNumbersOpensGap(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)
	seedTask(t, store, sc.ID, "a", nil)
	b := seedTask(t, store, sc.ID, "b", nil)
	seedTask(t, store, sc.ID, "c", nil)
	seedTask(t, store, sc.ID, "d", nil)

	if err := store.ShiftTaskNumbers(context.Background(), b.ID); err != nil {
		t.Fatalf("shift numbers: %v", err)
	}

	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{
		"a": 1, "b": 2, "c": 4, "d": 5,
	})
}

func TestShiftTaskNumbersScenarioScoped(t *testing.T) {
	store := setupTestStore(t)
	sc1 := seedScenario(t, store)
	sc2 := seedScenario(t, store)
	a := seedTask(t, store, sc1.ID, "a", nil)
	seedTask(t, store, sc1.ID, "b", nil)
	seedTask(t, store, sc2.ID, "other", nil)

	if err := store.ShiftTaskNumbers(context.Background(), a.ID); err != nil {
		t.Fatalf("shift numbers: %v", err)
	}

	// The other scenario's sequence is untouched.
	assertNumbers(t, numbersByDesc(t, store, sc2.ID), map[string]int{"other": 1})
	assertNumbers(t, numbersByDesc(t, store, sc1.ID), map[string]int{"a": 1, "b": 3})
}

func TestDeleteTaskKeepsGap(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)
	seedTask(t, store, sc.ID, "a", nil)
	b := seedTask(t, store, sc.ID, "b", nil)
	seedTask(t, store, sc.ID, "c", nil)

	if err := store.DeleteTask(context.Background(), b.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}

	// No compaction: c keeps number 3.
	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{"a": 1, "c": 3})
}

func seedGame(t *testing.T, store *SQLiteStore, scenarioID int64) hunt.Game {
	t.Helper()
	g, err := store.CreateGame(context.Background(), hunt.Game{
		ScenarioID: scenarioID,
		Title:      "City Hunt",
		BeginsAt:   time.Now(),
		EndsAt:     time.Now().Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}

func TestCreateTeamOnePerUserPerGame(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)
	g := seedGame(t, store, sc.ID)

	if _, err := store.CreateTeam(context.Background(), hunt.Team{
		GameID: g.ID, UserID: 7, PlayersNumber: 3,
	}); err != nil {
		t.Fatalf("create team: %v", err)
	}

	_, err := store.CreateTeam(context.Background(), hunt.Team{
		GameID: g.ID, UserID: 7, PlayersNumber: 2,
	})
	if !errors.Is(err, ErrTeamExists) {
		t.Errorf("expected ErrTeamExists, got %v", err)
	}

	// Same user in a different game is fine.
	g2 := seedGame(t, store, sc.ID)
	if _, err := store.CreateTeam(context.Background(), hunt.Team{
		GameID: g2.ID, UserID: 7, PlayersNumber: 2,
	}); err != nil {
		t.Errorf("expected team in second game, got %v", err)
	}
}

func TestCreateCompletionUnknownRefs(t *testing.T) {
	store := setupTestStore(t)
	sc := seedScenario(t, store)
	g := seedGame(t, store, sc.ID)
	task := seedTask(t, store, sc.ID, "a", nil)
	team, err := store.CreateTeam(context.Background(), hunt.Team{GameID: g.ID, UserID: 1, PlayersNumber: 1})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	if _, err := store.CreateCompletion(context.Background(), team.ID+100, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown team, got %v", err)
	}
	if _, err := store.CreateCompletion(context.Background(), team.ID, task.ID+100); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown task, got %v", err)
	}

	c, err := store.CreateCompletion(context.Background(), team.ID, task.ID)
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}
	if c.TaskNumber != task.Number {
		t.Errorf("expected task number %d, got %d", task.Number, c.TaskNumber)
	}
}

func TestTeamCompletionsScenarioScoped(t *testing.T) {
	store := setupTestStore(t)
	sc1 := seedScenario(t, store)
	sc2 := seedScenario(t, store)
	g := seedGame(t, store, sc1.ID)
	team, err := store.CreateTeam(context.Background(), hunt.Team{GameID: g.ID, UserID: 1, PlayersNumber: 1})
	if err != nil {
		t.Fatalf("create team: %v", err)
	}

	t1 := seedTask(t, store, sc1.ID, "a", nil)
	t2 := seedTask(t, store, sc2.ID, "b", nil)
	for _, taskID := range []int64{t1.ID, t2.ID} {
		if _, err := store.CreateCompletion(context.Background(), team.ID, taskID); err != nil {
			t.Fatalf("create completion: %v", err)
		}
	}

	completions, err := store.TeamCompletions(context.Background(), team.ID, sc1.ID)
	if err != nil {
		t.Fatalf("team completions: %v", err)
	}
	if len(completions) != 1 || completions[0].TaskID != t1.ID {
		t.Errorf("expected only scenario 1 completion, got %v", completions)
	}
}
