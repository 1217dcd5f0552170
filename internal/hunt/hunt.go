// Package hunt defines the core domain types and game logic for the
// scavenger hunt: answer verification, task-number sequencing, and
// team progress. It has no storage or transport dependencies.
package hunt

import "time"

type Scenario struct {
	ID          int64
	Title       string
	Description string
	Image       string
	CreatedAt   time.Time
}

// AnswerKind selects the verification strategy for a task.
type AnswerKind string

const (
	AnswerKindText     AnswerKind = "text"
	AnswerKindImage    AnswerKind = "image"
	AnswerKindLocation AnswerKind = "location"
)

// Valid reports whether k is one of the known answer kinds.
func (k AnswerKind) Valid() bool {
	switch k {
	case AnswerKindText, AnswerKindImage, AnswerKindLocation:
		return true
	}
	return false
}

// Task is one step of a scenario. Within a scenario, task numbers form
// a contiguous sequence 1..N with no gaps or duplicates; the sequencing
// operations in the store preserve that invariant on every mutation.
// ScenarioID is nil only for legacy standalone tasks created outside
// the API.
type Task struct {
	ID          int64
	ScenarioID  *int64
	Number      int
	Description string
	Kind        AnswerKind
	// CorrectAnswer holds the expected free-text answer for text tasks
	// and a "lat,lon" pair for location tasks. Image tasks use the
	// associated AnswerImage records instead.
	CorrectAnswer string
	Image         string
	Audio         string
	CreatedAt     time.Time
}

type AnswerImage struct {
	ID        int64
	TaskID    int64
	Image     string
	IsCorrect bool
}

type Game struct {
	ID         int64
	ScenarioID int64
	Title      string
	BeginsAt   time.Time
	EndsAt     time.Time
	CreatedAt  time.Time
}

type Team struct {
	ID            int64
	GameID        int64
	UserID        int64
	PlayersNumber int
	CreatedAt     time.Time
}

// CompletedTask records that a team finished a task. Append-only.
// TaskNumber is the task's number within its scenario, denormalized
// for progress computation.
type CompletedTask struct {
	ID          int64
	TeamID      int64
	TaskID      int64
	TaskNumber  int
	CompletedAt time.Time
}
