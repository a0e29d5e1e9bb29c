package workchain

import (
	"context"
	"encoding/json"
	"testing"
)

func TestChainSnapshotTokenizesPendingAwaitablesInContext(t *testing.T) {
	runner := newFakeRunner()
	store := newFakeStore()
	root := Sequence(Step("noop", func(ctx *Context) (StepResult, error) { return nil, nil }))
	chain := NewWorkChain("pk-1", NewOutline(root), runner, store)

	if err := chain.bindToContext("result", ProcessHandle{PK: "child"}); err != nil {
		t.Fatalf("bind: %v", err)
	}

	snap := chain.Snapshot()
	token, ok := snap.Context["result"].(placeholderToken)
	if !ok {
		t.Fatalf("expected context value to be tokenized, got %T", snap.Context["result"])
	}
	if token.Index != 0 {
		t.Fatalf("expected token index 0, got %d", token.Index)
	}
	if len(snap.Pending) != 1 || snap.Pending[0].PK != "child" {
		t.Fatalf("expected one pending awaitable for child, got %v", snap.Pending)
	}
}

func TestChainSnapshotSurvivesJSONRoundTrip(t *testing.T) {
	runner := newFakeRunner()
	store := newFakeStore()
	store.put(&fakeNode{pk: "child"})
	root := Sequence(
		Step("launch", func(ctx *Context) (StepResult, error) {
			return ToContext{"result": ProcessHandle{PK: "child"}}, nil
		}),
		Step("use", func(ctx *Context) (StepResult, error) { return nil, nil }),
	)
	outline := NewOutline(root)
	chain := NewWorkChain("pk-2", outline, runner, store)
	chain.Start(context.Background())

	snap := chain.Snapshot()
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded ChainSnapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored := Restore(decoded, outline, runner, store, nil)
	if restored.State() != StateWaiting {
		t.Fatalf("expected restored chain Waiting, got %s", restored.State())
	}

	runner.finish("child")
	if restored.State() != StateFinished {
		t.Fatalf("expected restored chain Finished, got %s", restored.State())
	}
	val, ok := restored.Ctx().Get("result")
	if !ok {
		t.Fatalf("expected result bound after resolution")
	}
	if node, ok := val.(Node); !ok || node.PK() != "child" {
		t.Fatalf("expected resolved node child, got %v", val)
	}
}
