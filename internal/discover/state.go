package discover

import (
	"fmt"

	"github.com/desertthunder/flickx/internal/tasks"
)

// Status is the lifecycle position of one dispatched request.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// State is the view state of the request that owns the results region.
type State struct {
	Seq    uint64
	Intent Intent
	Status Status
	Count  int   // movies rendered on success
	Err    error // cause on failure
}

func (s State) String() string {
	switch s.Status {
	case Success:
		return fmt.Sprintf("#%d %s: %d movies", s.Seq, s.Intent, s.Count)
	case Failed:
		return fmt.Sprintf("#%d %s: %v", s.Seq, s.Intent, s.Err)
	default:
		return fmt.Sprintf("#%d %s: %s", s.Seq, s.Intent, s.Status)
	}
}

// StateUpdate is sent to subscribers whenever the current request moves.
//
// Step and Total carry hydration progress while Status is [Loading].
type StateUpdate struct {
	State   State
	Step    int
	Total   int
	Message string
}

func loadingUpdate(st State, p tasks.ProgressUpdate) StateUpdate {
	return StateUpdate{State: st, Step: p.Step, Total: p.Total, Message: p.Message}
}
