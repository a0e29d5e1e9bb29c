package workchain

import "testing"

func TestConstructAwaitableFromProcessHandle(t *testing.T) {
	aw := ConstructAwaitable(ProcessHandle{PK: "p1"})
	if aw.PK != "p1" {
		t.Fatalf("expected PK p1, got %q", aw.PK)
	}
	if aw.Target != TargetProcess {
		t.Fatalf("expected TargetProcess, got %v", aw.Target)
	}
	if aw.Action != ActionAssign {
		t.Fatalf("expected default Action=ASSIGN, got %v", aw.Action)
	}
	if aw.Outputs {
		t.Fatalf("expected Outputs=false by default")
	}
}

func TestConstructAwaitablePassesThroughExistingAwaitable(t *testing.T) {
	original := &Awaitable{PK: "p2", Action: ActionAppend}
	got := ConstructAwaitable(original)
	if got != original {
		t.Fatalf("expected the same *Awaitable to be returned unchanged")
	}
}

func TestAwaitableWithOutputsAndAppendAreComposable(t *testing.T) {
	aw := ConstructAwaitable(ProcessHandle{PK: "p3"}).WithOutputs().Append()
	if !aw.Outputs {
		t.Fatalf("expected Outputs=true")
	}
	if aw.Action != ActionAppend {
		t.Fatalf("expected Action=APPEND, got %v", aw.Action)
	}
}

func TestAwaitableTargetAndActionStringers(t *testing.T) {
	if TargetProcess.String() != "process" {
		t.Fatalf("unexpected TargetProcess.String(): %q", TargetProcess.String())
	}
	if ActionAssign.String() != "assign" {
		t.Fatalf("unexpected ActionAssign.String(): %q", ActionAssign.String())
	}
	if ActionAppend.String() != "append" {
		t.Fatalf("unexpected ActionAppend.String(): %q", ActionAppend.String())
	}
}
