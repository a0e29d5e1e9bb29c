package workchain

// Runner is the scheduling substrate a WorkChain is handed at construction
// time. It owns the worker loop that turns "a process finished" into a
// resumed do_step call; WorkChain never touches goroutines or channels
// directly (spec.md §5, §6).
type Runner interface {
	// CallOnProcessFinish registers callback to run exactly once, the
	// first time pk's process reaches a terminal state. Implementations
	// must tolerate pk already being terminal at registration time by
	// invoking callback promptly rather than silently dropping it.
	CallOnProcessFinish(pk string, callback func())

	// CallSoon schedules fn to run on the runner's own execution context,
	// decoupling the caller (typically a completion callback running on
	// some other goroutine) from re-entrant calls into the chain's single
	// cooperative driver loop.
	CallSoon(fn func())
}
