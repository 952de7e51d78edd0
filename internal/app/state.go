package app

// State is the export lifecycle: Idle → Collecting → Fetching → Assembling → Done | Failed.
type State int32

const (
	StateIdle State = iota
	StateCollecting
	StateFetching
	StateAssembling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateFetching:
		return "fetching"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is reported on every state change and after each article fetch.
type Progress struct {
	State     State
	Done      int
	Total     int
	Succeeded int
	Failed    int
	// Title is the article just processed, empty outside Fetching.
	Title string
}
