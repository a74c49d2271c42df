package tasks

import "fmt"

// ProgressUpdate represents a progress event during a batch operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	HydrateStart Phase = iota
	HydrateTitle
	HydrateDone
)

func (p Phase) String() string {
	switch p {
	case HydrateStart:
		return "hydrate_start"
	case HydrateTitle:
		return "hydrate_title"
	case HydrateDone:
		return "hydrate_done"
	default:
		return ""
	}
}

// sendProgress sends update without blocking; a full or nil channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func hydrateStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   HydrateStart,
		Total:   total,
		Message: fmt.Sprintf("Fetching details for %d titles...", total),
	}
}

func hydrateTitleUpdate(step, total int, title string, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   HydrateTitle,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
		}
	}
	return ProgressUpdate{
		Phase:   HydrateTitle,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
	}
}

func hydrateDoneUpdate(found, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   HydrateDone,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Found details for %d of %d titles", found, total),
	}
}
