// Package emit provides pluggable observability sinks for WorkChain
// lifecycle events (WorkChain emits "suspend", "resolve" and "finish"),
// adapted from the teacher's graph/emit package.
package emit

// Emitter receives chain lifecycle events. Implementations must not
// block the chain's driver loop and should never panic.
type Emitter interface {
	Emit(event Event)
	EmitBatch(events []Event)
	Flush() error
}

// Event is one observable occurrence in a chain's lifecycle.
type Event struct {
	PK    string
	Msg   string // WorkChain emits "suspend", "resolve", "finish"
	Step  string // outline node name, empty for chain-level events
	Meta  map[string]interface{}
}
