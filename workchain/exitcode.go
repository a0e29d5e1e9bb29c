package workchain

// ExitCode is a tagged non-zero terminal status distinct from a normal,
// error-free completion. A zero-status ExitCode is equivalent to no exit
// code at all.
type ExitCode struct {
	Status  int
	Message string
}

// IsError reports whether the exit code denotes a non-zero, clean-but-not-ok
// termination (spec.md §7: "Exit code" is a clean outcome, never an error
// raised through Go's error interface, but Status > 0 still means the chain
// did not finish the way a plain nil result would).
func (e ExitCode) IsError() bool {
	return e.Status > 0
}
