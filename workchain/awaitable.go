package workchain

// AwaitableTarget identifies what kind of entity an Awaitable refers to.
// PROCESS is the only variant today; the type is kept extensible per
// spec.md §3.
type AwaitableTarget int

const (
	// TargetProcess awaits another process's termination.
	TargetProcess AwaitableTarget = iota
)

func (t AwaitableTarget) String() string {
	switch t {
	case TargetProcess:
		return "process"
	default:
		return "unknown"
	}
}

// AwaitableAction determines how a resolved value is bound into Context.
type AwaitableAction int

const (
	// ActionAssign replaces ctx[key] with the resolved value directly.
	ActionAssign AwaitableAction = iota
	// ActionAppend appends the resolved value to the ordered sequence at
	// ctx[key], preserving insertion order regardless of resolution order.
	ActionAppend
)

func (a AwaitableAction) String() string {
	switch a {
	case ActionAssign:
		return "assign"
	case ActionAppend:
		return "append"
	default:
		return "unknown"
	}
}

// Awaitable is a handle to an external result with bind-site metadata
// (spec.md §3). Awaitables are shared by reference between a WorkChain's
// awaitable list and its Context: the same *Awaitable value serves as a
// placeholder in Context until resolution overwrites it in place.
type Awaitable struct {
	PK       string
	Target   AwaitableTarget
	Action   AwaitableAction
	Key      string
	Outputs  bool
	Resolved bool

	// index is the slot within ctx[Key]'s slice this awaitable occupies
	// when Action == ActionAppend. Unused (zero) for ActionAssign, where
	// Key alone identifies the bind site.
	index int
}

// Reference is anything construct_awaitable can coerce into an Awaitable:
// a running process handle (identified by PK) or an already-constructed
// Awaitable (passed through).
type Reference interface {
	awaitablePK() string
}

// ProcessHandle is the concrete Reference a launched process hands back to
// a step so it can be bound into context via to_context (spec.md §4.2).
type ProcessHandle struct {
	PK string
}

func (h ProcessHandle) awaitablePK() string { return h.PK }

func (a *Awaitable) awaitablePK() string { return a.PK }

// ConstructAwaitable coerces a reference into an Awaitable with
// Target=PROCESS, default Action=ASSIGN, Outputs=false (spec.md §4.2). If
// value is already an *Awaitable it is returned unchanged (by reference,
// not copied) so identity is preserved for placeholder matching.
func ConstructAwaitable(value Reference) *Awaitable {
	if existing, ok := value.(*Awaitable); ok {
		return existing
	}
	return &Awaitable{
		PK:     value.awaitablePK(),
		Target: TargetProcess,
		Action: ActionAssign,
	}
}

// WithOutputs sets Outputs on the awaitable in place and returns it, so
// that once resolved it binds a mapping of {link_label: node} built from
// the target's outgoing links rather than the terminal node itself.
func (a *Awaitable) WithOutputs() *Awaitable {
	a.Outputs = true
	return a
}

// Append returns the awaitable configured with Action=APPEND instead of
// the default ASSIGN.
func (a *Awaitable) Append() *Awaitable {
	a.Action = ActionAppend
	return a
}
