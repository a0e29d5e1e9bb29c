// Package launch provides blocking and detached entry points for running
// a workchain.WorkChain, and a ChatProcess that turns a model.ChatModel
// call into an awaitable process (adapted from aiida's work/launch.py
// run/submit split).
package launch

import (
	"context"
	"fmt"

	"github.com/dshills/workchain-go/workchain"
)

// ResultAndPK pairs a launched chain's terminal result with its pk, for
// callers that need both (mirrors rrun_get_pid's return shape).
type ResultAndPK struct {
	PK     string
	Result *workchain.ExitCode
	Err    error
}

// Run launches chain and blocks until it reaches a terminal state,
// returning its terminal error (if any). Equivalent to a plain run():
// the caller never sees the chain while it's still Waiting.
func Run(ctx context.Context, chain *workchain.WorkChain) error {
	return chain.Run(ctx)
}

// RunGetPK behaves like Run but also returns the chain's pk and terminal
// exit code, for callers that need to look the chain's nodes back up in
// a NodeStore afterward.
func RunGetPK(ctx context.Context, chain *workchain.WorkChain) ResultAndPK {
	err := chain.Run(ctx)
	return ResultAndPK{PK: chain.PK(), Result: chain.Result(), Err: err}
}

// Submit starts chain without blocking: Start returns as soon as the
// chain either finishes synchronously or suspends on its first
// awaitable, and the caller gets the pk back immediately to track it by
// (mirrors submit(), which hands back control to the caller while the
// runner drives completion in the background).
func Submit(ctx context.Context, chain *workchain.WorkChain) string {
	chain.Start(ctx)
	return chain.PK()
}

// ProcessHandle satisfies workchain.Reference for the pk a ChatProcess
// was launched under.
func ProcessHandle(pk string) workchain.Reference {
	return workchain.ProcessHandle{PK: pk}
}

// ErrChatModelRequired is returned by NewChatProcess when model is nil.
var ErrChatModelRequired = fmt.Errorf("launch: a model.ChatModel is required")
