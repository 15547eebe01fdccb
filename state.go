package locsearch

// State identifies an engine phase.
type State string

// Engine states. Halt is the initial idle state; Shutdown is terminal.
const (
	StateHalt     State = "halt"
	StateIndex    State = "index"
	StateSearch   State = "search"
	StateShutdown State = "shutdown"
)

// Valid reports whether s is a recognized state.
func (s State) Valid() bool {
	switch s {
	case StateHalt, StateIndex, StateSearch, StateShutdown:
		return true
	}
	return false
}

// CanTransition reports whether the machine may move from s to next.
// Halt exchanges with Index and Search; every state may enter Shutdown.
// Self-transitions are rejected.
func (s State) CanTransition(next State) bool {
	if !next.Valid() || s == next {
		return false
	}
	if next == StateShutdown {
		return true
	}
	switch s {
	case StateHalt:
		return next == StateIndex || next == StateSearch
	case StateIndex, StateSearch:
		return next == StateHalt
	}
	return false
}

// Query is one injected search request. Report selects report synthesis
// over the plain ranked URL list.
type Query struct {
	Text   string `json:"text"`
	K      int    `json:"k"`
	Report bool   `json:"report"`
}

// Validate returns an error if the query contains invalid fields.
func (q *Query) Validate() error {
	if q.Text == "" {
		return Errorf(EINVALID, "query text required")
	}
	if q.K <= 0 {
		return Errorf(EINVALID, "query k must be positive")
	}
	return nil
}
