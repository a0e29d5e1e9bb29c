package launch

import (
	"context"
	"testing"
	"time"

	"github.com/dshills/workchain-go/workchain"
	"github.com/dshills/workchain-go/workchain/model"
	"github.com/dshills/workchain-go/workchain/sched"
	"github.com/dshills/workchain-go/workchain/store"
)

func TestNewChatProcessRequiresModel(t *testing.T) {
	if _, err := NewChatProcess("pk", nil, nil, nil); err != ErrChatModelRequired {
		t.Fatalf("expected ErrChatModelRequired, got %v", err)
	}
}

func TestChatProcessLaunchResolvesThroughWorkChain(t *testing.T) {
	scheduler := sched.New(2)
	defer scheduler.Close()
	nodes := store.NewMemoryStore()
	mockModel := &model.MockChatModel{Responses: []model.ChatOut{{Text: "hello there"}}}

	var seenText string
	root := workchain.Sequence(
		workchain.Step("ask", func(ctx *workchain.Context) (workchain.StepResult, error) {
			proc, err := NewChatProcess("reply-1", mockModel, []model.Message{{Role: model.RoleUser, Content: "hi"}}, nil)
			if err != nil {
				return nil, err
			}
			ref := proc.Launch(context.Background(), scheduler, nodes)
			return workchain.ToContext{"reply": ref}, nil
		}),
		workchain.Step("use", func(ctx *workchain.Context) (workchain.StepResult, error) {
			val, _ := ctx.Get("reply")
			if node, ok := val.(workchain.Node); ok {
				n := node.(interface{ Value() map[string]interface{} })
				if text, ok := n.Value()["text"].(string); ok {
					seenText = text
				}
			}
			return nil, nil
		}),
	)

	chain := workchain.NewWorkChain("chain-1", workchain.NewOutline(root), scheduler, nodes)

	done := make(chan error, 1)
	go func() { done <- chain.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected run error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for chain to finish")
	}

	if seenText != "hello there" {
		t.Fatalf("expected the use step to observe the chat reply text, got %q", seenText)
	}
}

func TestSubmitReturnsPKWithoutBlocking(t *testing.T) {
	scheduler := sched.New(2)
	defer scheduler.Close()
	nodes := store.NewMemoryStore()
	nodes.Put(store.Record{PK: "child-1"})

	root := workchain.Sequence(
		workchain.Step("launch", func(ctx *workchain.Context) (workchain.StepResult, error) {
			return workchain.ToContext{"result": workchain.ProcessHandle{PK: "child-1"}}, nil
		}),
	)
	chain := workchain.NewWorkChain("chain-2", workchain.NewOutline(root), scheduler, nodes)

	pk := Submit(context.Background(), chain)
	if pk != "chain-2" {
		t.Fatalf("expected pk chain-2, got %q", pk)
	}
	if chain.State() != workchain.StateWaiting {
		t.Fatalf("expected chain to be Waiting after Submit, got %s", chain.State())
	}
}

func TestRunGetPKReturnsTerminalResult(t *testing.T) {
	scheduler := sched.New(2)
	defer scheduler.Close()
	nodes := store.NewMemoryStore()

	root := workchain.Sequence(
		workchain.Step("exit", func(ctx *workchain.Context) (workchain.StepResult, error) {
			return workchain.Exit(1, "done"), nil
		}),
	)
	chain := workchain.NewWorkChain("chain-3", workchain.NewOutline(root), scheduler, nodes)

	res := RunGetPK(context.Background(), chain)
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.PK != "chain-3" {
		t.Fatalf("expected pk chain-3, got %q", res.PK)
	}
	if res.Result == nil || res.Result.Message != "done" {
		t.Fatalf("expected exit code with message 'done', got %v", res.Result)
	}
}
