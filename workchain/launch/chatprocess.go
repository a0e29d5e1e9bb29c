package launch

import (
	"context"

	"github.com/dshills/workchain-go/workchain"
	"github.com/dshills/workchain-go/workchain/model"
	"github.com/dshills/workchain-go/workchain/sched"
	"github.com/dshills/workchain-go/workchain/store"
)

// ChatProcess wraps a single model.ChatModel call as a launchable
// process: a step can to_context-bind its ProcessHandle the same way it
// would bind a handle to any other awaited child process. Once the call
// completes, its {"text": ..., "tool_calls": ...} result (plus "error" if
// the call failed) is stored as the target node's value payload; the node
// has no outgoing links, so an Outputs awaitable on it binds an empty map.
type ChatProcess struct {
	pk       string
	model    model.ChatModel
	messages []model.Message
	tools    []model.ToolSpec
}

// NewChatProcess builds a ChatProcess identified by pk. pk must be
// unique among concurrently pending awaitables on the owning chain.
func NewChatProcess(pk string, m model.ChatModel, messages []model.Message, tools []model.ToolSpec) (*ChatProcess, error) {
	if m == nil {
		return nil, ErrChatModelRequired
	}
	return &ChatProcess{pk: pk, model: m, messages: messages, tools: tools}, nil
}

// Launch runs the chat call on its own goroutine, stores its result node
// under p.pk in nodes, and notifies scheduler once done so any chain
// awaiting p.pk's completion resumes. It returns the Reference a step's
// ToContext payload should bind.
func (p *ChatProcess) Launch(ctx context.Context, scheduler *sched.Scheduler, nodes *store.MemoryStore) workchain.Reference {
	go func() {
		out, err := p.model.Chat(ctx, p.messages, p.tools)
		value := map[string]interface{}{
			"text": out.Text,
		}
		if err != nil {
			value["error"] = err.Error()
		}
		if len(out.ToolCalls) > 0 {
			calls := make([]interface{}, len(out.ToolCalls))
			for i, tc := range out.ToolCalls {
				calls[i] = map[string]interface{}{"name": tc.Name, "input": tc.Input}
			}
			value["tool_calls"] = calls
		}
		nodes.Put(store.Record{PK: p.pk, Value: value})
		scheduler.Finish(p.pk)
	}()
	return ProcessHandle(p.pk)
}
