package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/questhunt/questhunt/internal/hunt"
)

func newTestServer(t *testing.T) (*chi.Mux, *SQLiteStore, *Broker) {
	t.Helper()

	db := setupTestDB(t)
	store := NewSQLiteStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	broker := NewBroker(logger, nil)

	r := chi.NewRouter()
	addRoutes(r, logger, store, broker, db, nil, "")
	return r, store, broker
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, buf)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedTextTask(t *testing.T, store *SQLiteStore, answer string) hunt.Task {
	t.Helper()
	sc := seedScenario(t, store)
	task, err := store.CreateTask(context.Background(), hunt.Task{
		ScenarioID:    &sc.ID,
		Description:   "find the bridge",
		Kind:          hunt.AnswerKindText,
		CorrectAnswer: answer,
	}, nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func checkAnswer(t *testing.T, r http.Handler, kind string, taskID int64, answer string) *httptest.ResponseRecorder {
	t.Helper()
	path := fmt.Sprintf("/api/tasks/check_answer?answer_type=%s&task_id=%d&answer=%s", kind, taskID, answer)
	return doJSON(t, r, http.MethodGet, path, nil)
}

func decodeVerdict(t *testing.T, w *httptest.ResponseRecorder) bool {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp CheckAnswerResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode verdict: %v", err)
	}
	return resp.IsCorrect
}

func TestCheckAnswerText(t *testing.T) {
	r, store, _ := newTestServer(t)
	task := seedTextTask(t, store, "Golden Gate")

	cases := []struct {
		answer string
		want   bool
	}{
		{"Golden+Gate", true},
		{"golden+gate", true},
		{"gate+golden", true}, // reordered
		{"goldn+gate", true},  // misspelled
		{"the+golden+gate", true},
		{"brooklyn+bridge", false},
		{"one+two+three+four+five+six+seven", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := decodeVerdict(t, checkAnswer(t, r, "text", task.ID, tc.answer)); got != tc.want {
			t.Errorf("answer %q: expected %v, got %v", tc.answer, tc.want, got)
		}
	}
}

func TestCheckAnswerLocation(t *testing.T) {
	r, store, _ := newTestServer(t)
	sc := seedScenario(t, store)
	task, err := store.CreateTask(context.Background(), hunt.Task{
		ScenarioID:    &sc.ID,
		Kind:          hunt.AnswerKindLocation,
		CorrectAnswer: "50.0755,14.4378",
	}, nil)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if !decodeVerdict(t, checkAnswer(t, r, "location", task.ID, "50.0755,14.4378")) {
		t.Error("expected exact coordinate to match")
	}
	if !decodeVerdict(t, checkAnswer(t, r, "location", task.ID, "50.0755,14.432213")) {
		t.Error("expected point within 400m to match")
	}
	if decodeVerdict(t, checkAnswer(t, r, "location", task.ID, "50.0755,14.4000")) {
		t.Error("expected far point to be rejected")
	}

	w := checkAnswer(t, r, "location", task.ID, "not-a-coordinate")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed coordinate, got %d", w.Code)
	}
}

func TestCheckAnswerImage(t *testing.T) {
	r, store, _ := newTestServer(t)
	task := seedTextTask(t, store, "")

	right, err := store.CreateAnswerImage(context.Background(), hunt.AnswerImage{TaskID: task.ID, Image: "right.jpg", IsCorrect: true})
	if err != nil {
		t.Fatalf("create answer image: %v", err)
	}
	wrong, err := store.CreateAnswerImage(context.Background(), hunt.AnswerImage{TaskID: task.ID, Image: "wrong.jpg"})
	if err != nil {
		t.Fatalf("create answer image: %v", err)
	}

	if !decodeVerdict(t, checkAnswer(t, r, "image", task.ID, fmt.Sprint(right.ID))) {
		t.Error("expected correct image to match")
	}
	if decodeVerdict(t, checkAnswer(t, r, "image", task.ID, fmt.Sprint(wrong.ID))) {
		t.Error("expected incorrect image to be rejected")
	}

	w := checkAnswer(t, r, "image", task.ID, fmt.Sprint(wrong.ID+100))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown image, got %d", w.Code)
	}
	w = checkAnswer(t, r, "image", task.ID, "not-an-id")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric image id, got %d", w.Code)
	}
}

func TestCheckAnswerNeverEchoesStoredAnswer(t *testing.T) {
	r, store, _ := newTestServer(t)
	// A text task probed as a location task forces a parse failure on
	// the stored side.
	task := seedTextTask(t, store, "Charles Bridge")

	w := checkAnswer(t, r, "location", task.ID, "1,1")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 for an unparseable stored answer, got %d", w.Code)
	}
	if body := w.Body.String(); strings.Contains(body, "Charles") || strings.Contains(body, "Bridge") {
		t.Errorf("response leaks the stored answer: %s", body)
	}
}

func TestCheckAnswerBadRequest(t *testing.T) {
	r, store, _ := newTestServer(t)
	task := seedTextTask(t, store, "answer")

	w := doJSON(t, r, http.MethodGet, "/api/tasks/check_answer?answer_type=text&task_id=abc&answer=x", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad task_id, got %d", w.Code)
	}

	w = checkAnswer(t, r, "riddle", task.ID, "x")
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown answer_type, got %d", w.Code)
	}

	w = checkAnswer(t, r, "text", task.ID+100, "x")
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown task, got %d", w.Code)
	}
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	r, store, _ := newTestServer(t)
	sc := seedScenario(t, store)

	// Append without a number.
	w := doJSON(t, r, http.MethodPost, "/api/tasks", map[string]any{
		"scenario":    sc.ID,
		"description": "first",
		"answer_type": "text",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var first TaskResponse
	json.NewDecoder(w.Body).Decode(&first)
	if first.Number != 1 {
		t.Errorf("expected number 1, got %d", first.Number)
	}

	// String numbers are accepted.
	w = doJSON(t, r, http.MethodPost, "/api/tasks", map[string]any{
		"scenario":    sc.ID,
		"number":      "1",
		"description": "pushed in front",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var second TaskResponse
	json.NewDecoder(w.Body).Decode(&second)
	if second.Number != 1 {
		t.Errorf("expected number 1, got %d", second.Number)
	}

	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{
		"pushed in front": 1, "first": 2,
	})

	// Renumber through PUT.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/tasks/%d", second.ID), map[string]any{
		"scenario":    sc.ID,
		"number":      2,
		"description": "pushed in front",
		"answer_type": "text",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{
		"first": 1, "pushed in front": 2,
	})

	// Delete leaves the other task alone.
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", second.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/tasks/%d", second.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}

func TestCreateTaskRejectsBadNumber(t *testing.T) {
	r, store, _ := newTestServer(t)
	sc := seedScenario(t, store)

	w := doJSON(t, r, http.MethodPost, "/api/tasks", map[string]any{
		"scenario": sc.ID,
		"number":   "soon",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var resp ErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Field != "number" {
		t.Errorf("expected field number, got %q", resp.Field)
	}
}

func TestUpdateTaskRejectsNonPositiveNumber(t *testing.T) {
	r, store, _ := newTestServer(t)
	sc := seedScenario(t, store)
	a := seedTask(t, store, sc.ID, "a", nil)
	seedTask(t, store, sc.ID, "b", nil)

	for _, number := range []int{0, -1} {
		w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/tasks/%d", a.ID), map[string]any{
			"scenario":    sc.ID,
			"number":      number,
			"description": "a",
			"answer_type": "text",
		})
		if w.Code != http.StatusBadRequest {
			t.Errorf("number %d: expected 400, got %d", number, w.Code)
			continue
		}
		var resp ErrorResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Field != "number" {
			t.Errorf("number %d: expected field number, got %q", number, resp.Field)
		}
	}

	// Omitting the number still means "unchanged".
	w := doJSON(t, r, http.MethodPut, fmt.Sprintf("/api/tasks/%d", a.ID), map[string]any{
		"scenario":    sc.ID,
		"description": "a renamed",
		"answer_type": "text",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{
		"a renamed": 1, "b": 2,
	})
}

func TestShiftNumbersEndpoint(t *testing.T) {
	r, store, _ := newTestServer(t)
	sc := seedScenario(t, store)
	seedTask(t, store, sc.ID, "a", nil)
	b := seedTask(t, store, sc.ID, "b", nil)
	seedTask(t, store, sc.ID, "c", nil)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/tasks/%d/shift_numbers", b.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	assertNumbers(t, numbersByDesc(t, store, sc.ID), map[string]int{
		"a": 1, "b": 2, "c": 4,
	})
}
