package progression

// Position is an exercise cursor: either at a specific set or past the last one.
// Keeping AllDone as its own state means it stays "done" when the total changes.
type Position struct {
	index int
	done  bool
}

// AtSet returns a cursor pointing at the 0-based set index i.
func AtSet(i int) Position {
	if i < 0 {
		i = 0
	}
	return Position{index: i}
}

// AllDone returns the cursor that sits past the last set.
func AllDone() Position {
	return Position{done: true}
}

// Index resolves the cursor against a total set count. AllDone resolves to total.
func (p Position) Index(total int) int {
	if p.done || p.index > total {
		return total
	}
	return p.index
}

// Done reports whether the cursor is past the last set for the given total.
func (p Position) Done(total int) bool {
	return p.Index(total) >= total
}

// Phase is the externally visible state of one exercise.
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseResting    Phase = "resting"
	PhaseAllDone    Phase = "all_done"
)
