package workchain

import "testing"

func TestContextAppendPlaceholderReturnsStableIndex(t *testing.T) {
	ctx := NewContext()
	i0 := ctx.AppendPlaceholder("xs", "a")
	i1 := ctx.AppendPlaceholder("xs", "b")
	i2 := ctx.AppendPlaceholder("xs", "c")
	if i0 != 0 || i1 != 1 || i2 != 2 {
		t.Fatalf("expected indices 0,1,2, got %d,%d,%d", i0, i1, i2)
	}

	ctx.SetAt("xs", i1, "B")
	val, ok := ctx.Get("xs")
	if !ok {
		t.Fatalf("expected xs present")
	}
	seq := val.([]interface{})
	want := []interface{}{"a", "B", "c"}
	for i, w := range want {
		if seq[i] != w {
			t.Fatalf("got %v, want %v", seq, want)
		}
	}
}

func TestContextSetAtOutOfRangeIsNoOp(t *testing.T) {
	ctx := NewContext()
	ctx.AppendPlaceholder("xs", "a")
	ctx.SetAt("xs", 5, "ignored")
	val, _ := ctx.Get("xs")
	seq := val.([]interface{})
	if len(seq) != 1 || seq[0] != "a" {
		t.Fatalf("expected slice unchanged, got %v", seq)
	}
}

func TestContextDeleteAndKeys(t *testing.T) {
	ctx := NewContext()
	ctx.Set("a", 1)
	ctx.Set("b", 2)
	ctx.Delete("a")
	if _, ok := ctx.Get("a"); ok {
		t.Fatalf("expected a deleted")
	}
	keys := ctx.Keys()
	if len(keys) != 1 || keys[0] != "b" {
		t.Fatalf("expected only key b, got %v", keys)
	}
}

func TestContextSnapshotIsIndependentCopy(t *testing.T) {
	ctx := NewContext()
	ctx.Set("a", 1)
	snap := ctx.Snapshot()
	ctx.Set("b", 2)
	if _, ok := snap["b"]; ok {
		t.Fatalf("expected snapshot taken before Set(b) to be unaffected by it")
	}
}

func TestContextRestoreReplacesContents(t *testing.T) {
	ctx := NewContext()
	ctx.Set("a", 1)
	ctx.Restore(map[string]interface{}{"b": 2})
	if _, ok := ctx.Get("a"); ok {
		t.Fatalf("expected a gone after restore")
	}
	if v, ok := ctx.Get("b"); !ok || v != 2 {
		t.Fatalf("expected b=2, got %v, %v", v, ok)
	}
}
