package workchain

import "log/slog"

// placeholderToken stands in for a *Awaitable inside a serialized Context
// snapshot. Awaitable pointers aren't meaningfully serializable on their
// own (their identity is what matters, not their address), so a snapshot
// replaces each one with a token keyed by its position in the Pending
// list and Restore substitutes the token back for the corresponding
// awaitable once the Pending list itself has been rebuilt.
type placeholderToken struct {
	Index int `json:"awaitable_index"`
}

// ChainSnapshot is the full serializable state of a WorkChain: Context
// (with pending placeholders tokenized), the Stepper cursor, the pending
// awaitable list, and enough Process state to resume correctly (spec.md
// §4.7).
type ChainSnapshot struct {
	PK      string                 `json:"pk"`
	State   ProcessState           `json:"state"`
	Status  string                 `json:"status"`
	Stepper StepperState           `json:"stepper"`
	Context map[string]interface{} `json:"context"`
	Pending []*Awaitable           `json:"pending"`
}

// Snapshot captures the chain's full resumable state. It is the WorkChain
// analogue of save_instance_state (spec.md §4.7).
func (c *WorkChain) Snapshot() ChainSnapshot {
	c.mu.Lock()
	pending := make([]*Awaitable, len(c.pending))
	index := make(map[*Awaitable]int, len(c.pending))
	for i, aw := range c.pending {
		cp := *aw
		pending[i] = &cp
		index[aw] = i
	}
	c.mu.Unlock()

	raw := c.ctx.Snapshot()
	tokenized := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		tokenized[k] = tokenizeValue(v, index)
	}

	return ChainSnapshot{
		PK:      c.PK(),
		State:   c.State(),
		Status:  c.Status(),
		Stepper: c.stepper.Save(),
		Context: tokenized,
		Pending: pending,
	}
}

func tokenizeValue(v interface{}, index map[*Awaitable]int) interface{} {
	switch val := v.(type) {
	case *Awaitable:
		if i, ok := index[val]; ok {
			return placeholderToken{Index: i}
		}
		return val
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = tokenizeValue(elem, index)
		}
		return out
	default:
		return v
	}
}

func detokenizeValue(v interface{}, pending []*Awaitable) interface{} {
	switch val := v.(type) {
	case placeholderToken:
		if val.Index >= 0 && val.Index < len(pending) {
			return pending[val.Index]
		}
		return nil
	case map[string]interface{}:
		// A placeholder token that round-tripped through JSON decodes as
		// a plain map rather than the placeholderToken type; recognize it
		// by its single known field.
		if idx, ok := val["awaitable_index"]; ok {
			if i, ok := idx.(int); ok && i >= 0 && i < len(pending) {
				return pending[i]
			}
			if f, ok := idx.(float64); ok && int(f) >= 0 && int(f) < len(pending) {
				return pending[int(f)]
			}
		}
		return val
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = detokenizeValue(elem, pending)
			// Awaitable.index is not serialized; an APPEND placeholder's
			// slot is its position in this slice.
			if aw, ok := out[i].(*Awaitable); ok {
				aw.index = i
			}
		}
		return out
	default:
		return v
	}
}

// Restore rebuilds a WorkChain from a snapshot produced by Snapshot. The
// returned chain's logger is rebound to logger, its Stepper recreated at
// the saved cursor, and — if any awaitables were still pending — its
// callbacks re-registered with runner so resolution can resume the chain
// exactly as if it had never been serialized (spec.md §4.7, the
// round-trip invariant).
func Restore(snap ChainSnapshot, outline *Outline, runner Runner, store NodeStore, logger *slog.Logger, opts ...ChainOption) *WorkChain {
	cfg := defaultChainConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if logger != nil {
		cfg.logger = logger
	}

	c := &WorkChain{
		Process: newProcess(snap.PK, cfg.logger),
		outline: outline,
		ctx:     NewContext(),
		runner:  runner,
		store:   store,
		cfg:     cfg,
		done:    make(chan struct{}),
	}

	pending := make([]*Awaitable, len(snap.Pending))
	for i, aw := range snap.Pending {
		cp := *aw
		pending[i] = &cp
	}
	c.pending = pending

	values := make(map[string]interface{}, len(snap.Context))
	for k, v := range snap.Context {
		values[k] = detokenizeValue(v, pending)
	}
	c.ctx.Restore(values)

	c.stepper = outline.RecreateStepper(snap.Stepper, c)
	c.transition(snap.State)
	c.setStatus(snap.Status)

	if len(pending) > 0 && snap.State == StateWaiting {
		c.registerCallbacks()
	}
	return c
}
