package hunt

// NoUpperBound marks a Shift window with no upper limit.
const NoUpperBound = int(^uint(0) >> 1)

// Shift describes a window of task numbers [Lo, Hi] that must move by
// Delta as part of a sequencing operation. The store applies a Shift
// as a single bulk update inside the same transaction as the mutation
// it accompanies, so the dense-numbering invariant holds at every
// transaction boundary.
type Shift struct {
	Lo    int
	Hi    int
	Delta int
}

// Contains reports whether number n falls inside the shift window.
func (s Shift) Contains(n int) bool {
	return n >= s.Lo && n <= s.Hi
}

// Apply returns n moved by the shift, or n unchanged if it is outside
// the window.
func (s Shift) Apply(n int) int {
	if s.Contains(n) {
		return n + s.Delta
	}
	return n
}

// NextNumber returns the number assigned to a task appended to a
// scenario that already holds count tasks.
func NextNumber(count int) int {
	return count + 1
}

// InsertShift returns the window that makes room for a task inserted
// at the requested number: every task at that number or above moves up
// by one. Callers only apply it when the requested number is already
// taken; inserting into a gap past the end needs no shift.
func InsertShift(requested int) Shift {
	return Shift{Lo: requested, Hi: NoUpperBound, Delta: +1}
}

// RenumberShift returns the window that closes the gap left by moving
// a task from cur to target within the same scenario, and reports
// whether any shift is needed at all (a no-op when cur == target).
//
// Moving up: tasks in (cur, target] slide down by one.
// Moving down: tasks in [target, cur) slide up by one.
// Either way the scenario's numbers stay a dense 1..N permutation.
func RenumberShift(cur, target int) (Shift, bool) {
	switch {
	case target > cur:
		return Shift{Lo: cur + 1, Hi: target, Delta: -1}, true
	case target < cur:
		return Shift{Lo: target, Hi: cur - 1, Delta: +1}, true
	default:
		return Shift{}, false
	}
}

// ShiftFromWindow returns the window for the explicit shift operation:
// every task numbered strictly above the given task moves up by one.
// The given task keeps its own number. The window is scoped to the
// task's scenario by the caller.
func ShiftFromWindow(number int) Shift {
	return Shift{Lo: number + 1, Hi: NoUpperBound, Delta: +1}
}
