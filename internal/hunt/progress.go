package hunt

// TeamProgress is the outcome of ComputeProgress: the task the team
// should see next, how far through the scenario it is, and whether the
// scenario is finished.
type TeamProgress struct {
	Current    *Task
	Percentage float64
	Ended      bool
}

// ComputeProgress determines a team's position in a scenario from the
// scenario's tasks (ordered by number) and the team's completion
// records. The team's highest completed task number marks its
// position; the task numbered one above it is current. Duplicate
// completions of the same task collapse naturally under the max.
//
// A scenario with no tasks is ended with progress zero rather than
// dividing by zero.
func ComputeProgress(tasks []Task, completed []CompletedTask) TeamProgress {
	if len(tasks) == 0 {
		return TeamProgress{Ended: true}
	}

	highest := 0
	for _, c := range completed {
		if c.TaskNumber > highest {
			highest = c.TaskNumber
		}
	}
	target := highest + 1

	for i := range tasks {
		if tasks[i].Number == target {
			return TeamProgress{
				Current:    &tasks[i],
				Percentage: float64(target-1) / float64(len(tasks)),
			}
		}
	}

	// The team is past the last task.
	return TeamProgress{Percentage: 1.0, Ended: true}
}
