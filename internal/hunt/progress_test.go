package hunt

import "testing"

func scenarioTasks(n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{ID: int64(i + 1), Number: i + 1}
	}
	return tasks
}

func TestProgressFreshTeam(t *testing.T) {
	p := ComputeProgress(scenarioTasks(3), nil)

	if p.Ended {
		t.Error("fresh team: scenario should not be ended")
	}
	if p.Current == nil || p.Current.Number != 1 {
		t.Fatalf("fresh team: expected current task #1, got %+v", p.Current)
	}
	if p.Percentage != 0 {
		t.Errorf("fresh team: expected percentage 0, got %v", p.Percentage)
	}
}

func TestProgressMidway(t *testing.T) {
	completed := []CompletedTask{{TaskNumber: 1}, {TaskNumber: 2}}
	p := ComputeProgress(scenarioTasks(4), completed)

	if p.Ended {
		t.Error("midway: scenario should not be ended")
	}
	if p.Current == nil || p.Current.Number != 3 {
		t.Fatalf("midway: expected current task #3, got %+v", p.Current)
	}
	if p.Percentage != 0.5 {
		t.Errorf("midway: expected percentage 0.5, got %v", p.Percentage)
	}
}

func TestProgressFinished(t *testing.T) {
	completed := []CompletedTask{{TaskNumber: 1}, {TaskNumber: 2}, {TaskNumber: 3}}
	p := ComputeProgress(scenarioTasks(3), completed)

	if !p.Ended {
		t.Error("finished: scenario should be ended")
	}
	if p.Current != nil {
		t.Errorf("finished: expected no current task, got %+v", p.Current)
	}
	if p.Percentage != 1.0 {
		t.Errorf("finished: expected percentage 1.0, got %v", p.Percentage)
	}
}

func TestProgressDuplicateCompletions(t *testing.T) {
	// Duplicate records per task collapse under the max.
	completed := []CompletedTask{{TaskNumber: 2}, {TaskNumber: 2}, {TaskNumber: 1}}
	p := ComputeProgress(scenarioTasks(4), completed)

	if p.Current == nil || p.Current.Number != 3 {
		t.Fatalf("expected current task #3, got %+v", p.Current)
	}
}

func TestProgressEmptyScenario(t *testing.T) {
	p := ComputeProgress(nil, nil)

	if !p.Ended {
		t.Error("empty scenario should be ended")
	}
	if p.Percentage != 0 {
		t.Errorf("empty scenario: expected percentage 0, got %v", p.Percentage)
	}
	if p.Current != nil {
		t.Error("empty scenario: expected no current task")
	}
}
