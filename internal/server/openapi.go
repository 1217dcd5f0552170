package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// CheckAnswerResponse is the verdict for a submitted answer.
type CheckAnswerResponse struct {
	IsCorrect bool `json:"is_correct"`
}

type ShiftNumbersResponse struct {
	Status string `json:"status"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "QuestHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for location-based scavenger hunts.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(map[string]struct {
		Status string `json:"status"`
	}{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getHealthz)

	// GET /api/scenarios
	listScenarios, _ := r.NewOperationContext(http.MethodGet, "/api/scenarios")
	listScenarios.SetSummary("List scenarios")
	listScenarios.AddRespStructure([]ScenarioResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listScenarios)

	// POST /api/scenarios
	createScenario, _ := r.NewOperationContext(http.MethodPost, "/api/scenarios")
	createScenario.SetSummary("Create scenario")
	createScenario.SetDescription("Creates a scenario, optionally with nested tasks that are numbered through the sequencer.")
	createScenario.AddReqStructure(ScenarioRequest{})
	createScenario.AddRespStructure(ScenarioResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createScenario.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createScenario)

	// GET /api/scenarios/{id}
	getScenario, _ := r.NewOperationContext(http.MethodGet, "/api/scenarios/{id}")
	getScenario.SetSummary("Get scenario")
	getScenario.AddRespStructure(ScenarioResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getScenario.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getScenario)

	// PUT /api/scenarios/{id}
	updateScenario, _ := r.NewOperationContext(http.MethodPut, "/api/scenarios/{id}")
	updateScenario.SetSummary("Update scenario")
	updateScenario.AddReqStructure(ScenarioRequest{})
	updateScenario.AddRespStructure(ScenarioResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	updateScenario.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateScenario)

	// DELETE /api/scenarios/{id}
	deleteScenario, _ := r.NewOperationContext(http.MethodDelete, "/api/scenarios/{id}")
	deleteScenario.SetSummary("Delete scenario")
	deleteScenario.SetDescription("Deletes a scenario and its tasks.")
	deleteScenario.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteScenario.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteScenario)

	// GET /api/scenarios/{id}/tasks
	scenarioTasks, _ := r.NewOperationContext(http.MethodGet, "/api/scenarios/{id}/tasks")
	scenarioTasks.SetSummary("List scenario tasks")
	scenarioTasks.SetDescription("Returns the scenario's tasks ordered by number.")
	scenarioTasks.AddRespStructure([]TaskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	scenarioTasks.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(scenarioTasks)

	// POST /api/scenarios/{id}/tasks
	scenarioAddTask, _ := r.NewOperationContext(http.MethodPost, "/api/scenarios/{id}/tasks")
	scenarioAddTask.SetSummary("Add task to scenario")
	scenarioAddTask.AddReqStructure(TaskRequest{})
	scenarioAddTask.AddRespStructure(TaskResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	scenarioAddTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	scenarioAddTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(scenarioAddTask)

	// GET /api/tasks
	listTasks, _ := r.NewOperationContext(http.MethodGet, "/api/tasks")
	listTasks.SetSummary("List tasks")
	listTasks.AddRespStructure([]TaskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listTasks)

	// POST /api/tasks
	createTaskOp, _ := r.NewOperationContext(http.MethodPost, "/api/tasks")
	createTaskOp.SetSummary("Create task")
	createTaskOp.SetDescription("Inserts a task into its scenario's sequence. A taken number shifts later tasks up by one; no number appends.")
	createTaskOp.AddReqStructure(TaskRequest{})
	createTaskOp.AddRespStructure(TaskResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createTaskOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createTaskOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(createTaskOp)

	// GET /api/tasks/check_answer
	checkAnswer, _ := r.NewOperationContext(http.MethodGet, "/api/tasks/check_answer")
	checkAnswer.SetSummary("Check answer")
	checkAnswer.SetDescription("Verifies a submitted answer against a task. Text answers tolerate typos and word reorderings, location answers must fall within 400 meters, image answers reference an answer image id.")
	checkAnswer.AddRespStructure(CheckAnswerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	checkAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	checkAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(checkAnswer)

	// GET /api/tasks/{id}
	getTask, _ := r.NewOperationContext(http.MethodGet, "/api/tasks/{id}")
	getTask.SetSummary("Get task")
	getTask.AddRespStructure(TaskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTask)

	// PUT /api/tasks/{id}
	updateTask, _ := r.NewOperationContext(http.MethodPut, "/api/tasks/{id}")
	updateTask.SetSummary("Update task")
	updateTask.SetDescription("Rewrites a task. Changing the number rotates the scenario's sequence so it stays contiguous.")
	updateTask.AddReqStructure(TaskRequest{})
	updateTask.AddRespStructure(TaskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	updateTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateTask)

	// DELETE /api/tasks/{id}
	deleteTask, _ := r.NewOperationContext(http.MethodDelete, "/api/tasks/{id}")
	deleteTask.SetSummary("Delete task")
	deleteTask.SetDescription("Removes a task. Remaining numbers keep their gap.")
	deleteTask.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteTask)

	// POST /api/tasks/{id}/shift_numbers
	shiftNumbers, _ := r.NewOperationContext(http.MethodPost, "/api/tasks/{id}/shift_numbers")
	shiftNumbers.SetSummary("Shift task numbers")
	shiftNumbers.SetDescription("Moves every task in the same scenario numbered above this one up by one.")
	shiftNumbers.AddRespStructure(ShiftNumbersResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	shiftNumbers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(shiftNumbers)

	// GET /api/answerimages
	listImages, _ := r.NewOperationContext(http.MethodGet, "/api/answerimages")
	listImages.SetSummary("List answer images")
	listImages.SetDescription("Lists a task's answer images, optionally filtered by correctness.")
	listImages.AddRespStructure([]AnswerImageResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	listImages.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(listImages)

	// POST /api/answerimages
	createImage, _ := r.NewOperationContext(http.MethodPost, "/api/answerimages")
	createImage.SetSummary("Create answer image")
	createImage.AddReqStructure(AnswerImageRequest{})
	createImage.AddRespStructure(AnswerImageResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createImage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(createImage)

	// DELETE /api/answerimages/{id}
	deleteImage, _ := r.NewOperationContext(http.MethodDelete, "/api/answerimages/{id}")
	deleteImage.SetSummary("Delete answer image")
	deleteImage.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteImage.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteImage)

	// GET /api/games
	listGames, _ := r.NewOperationContext(http.MethodGet, "/api/games")
	listGames.SetSummary("List games")
	listGames.AddRespStructure([]GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listGames)

	// POST /api/games
	createGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	createGame.SetSummary("Create game")
	createGame.SetDescription("Schedules a scenario as a playable game.")
	createGame.AddReqStructure(GameRequest{})
	createGame.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createGame)

	// GET /api/games/{id}
	getGame, _ := r.NewOperationContext(http.MethodGet, "/api/games/{id}")
	getGame.SetSummary("Get game")
	getGame.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGame)

	// PUT /api/games/{id}
	updateGame, _ := r.NewOperationContext(http.MethodPut, "/api/games/{id}")
	updateGame.SetSummary("Update game")
	updateGame.AddReqStructure(GameRequest{})
	updateGame.AddRespStructure(GameResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	updateGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateGame)

	// DELETE /api/games/{id}
	deleteGame, _ := r.NewOperationContext(http.MethodDelete, "/api/games/{id}")
	deleteGame.SetSummary("Delete game")
	deleteGame.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteGame)

	// GET /api/teams
	listTeams, _ := r.NewOperationContext(http.MethodGet, "/api/teams")
	listTeams.SetSummary("List teams")
	listTeams.AddRespStructure([]TeamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listTeams)

	// POST /api/teams
	createTeamOp, _ := r.NewOperationContext(http.MethodPost, "/api/teams")
	createTeamOp.SetSummary("Create team")
	createTeamOp.SetDescription("Registers a user's team in a game. A user gets at most one team per game.")
	createTeamOp.AddReqStructure(TeamRequest{})
	createTeamOp.AddRespStructure(TeamResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createTeamOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createTeamOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(createTeamOp)

	// GET /api/teams/{id}
	getTeam, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{id}")
	getTeam.SetSummary("Get team")
	getTeam.AddRespStructure(TeamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTeam)

	// DELETE /api/teams/{id}
	deleteTeamOp, _ := r.NewOperationContext(http.MethodDelete, "/api/teams/{id}")
	deleteTeamOp.SetSummary("Delete team")
	deleteTeamOp.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteTeamOp.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteTeamOp)

	// GET /api/task-completion
	listCompletions, _ := r.NewOperationContext(http.MethodGet, "/api/task-completion")
	listCompletions.SetSummary("List task completions")
	listCompletions.AddRespStructure([]CompletionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listCompletions)

	// POST /api/task-completion
	createCompletion, _ := r.NewOperationContext(http.MethodPost, "/api/task-completion")
	createCompletion.SetSummary("Record task completion")
	createCompletion.SetDescription("Records that a team finished a task and notifies the team's event stream.")
	createCompletion.AddReqStructure(CompletionRequest{})
	createCompletion.AddRespStructure(CompletionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createCompletion.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(createCompletion)

	// GET /api/task-completion/current-task
	currentTask, _ := r.NewOperationContext(http.MethodGet, "/api/task-completion/current-task")
	currentTask.SetSummary("Current task")
	currentTask.SetDescription("Returns the team's next task in a scenario with completion percentage. The correct answer is never included.")
	currentTask.AddRespStructure(CurrentTaskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	currentTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(currentTask)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of a team's progress. Pass the team id as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
