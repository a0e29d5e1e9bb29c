package workchain

import "errors"

// ErrInvalidOperation is the cause wrapped by the *ChainError DoStep
// returns when a step hands back a StepResult of unrecognized shape.
var ErrInvalidOperation = errors.New("workchain: invalid operation")

// ErrUnresolvableTarget is returned by ResolveAwaitable when the NodeStore
// cannot load the finished pk (the store's own error is wrapped alongside
// it), when no NodeStore is configured, or when no pending awaitable is
// bound to that pk.
var ErrUnresolvableTarget = errors.New("workchain: unresolvable awaitable target")

// ErrInvariantViolation names internal bookkeeping failures that indicate a
// programming error rather than a recoverable condition. No function in
// this package returns it: resolving an APPEND awaitable whose slot is
// missing is a silent no-op (Context.SetAt), and an awaitable with an
// unknown action is bound like ASSIGN.
var ErrInvariantViolation = errors.New("workchain: invariant violation")

// ErrNotRunning names the condition of driving a chain that is not in the
// expected ProcessState. No function in this package returns it.
var ErrNotRunning = errors.New("workchain: chain is not running")

// ErrNoStepper names the condition of a chain without a stepper. No
// function in this package returns it: NewWorkChain and Restore always
// build a Stepper.
var ErrNoStepper = errors.New("workchain: stepper not initialized")

// ChainError wraps a failure that terminates a WorkChain in the Excepted
// state, preserving a machine-readable Code the way the teacher's
// EngineError does for the graph engine.
type ChainError struct {
	Code    string
	Message string
	Cause   error
}

func (e *ChainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ChainError) Unwrap() error {
	return e.Cause
}

// newChainError builds a ChainError, matching the teacher's practice of
// attaching a short machine-readable code alongside the human message.
func newChainError(code, message string, cause error) *ChainError {
	return &ChainError{Code: code, Message: message, Cause: cause}
}
