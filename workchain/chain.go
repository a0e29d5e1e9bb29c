package workchain

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/workchain-go/workchain/emit"
	"go.opentelemetry.io/otel/attribute"
)

// WorkChain orchestrates a Stepper against a Context, suspending on
// unresolved Awaitables and resuming through a Runner (spec.md §4, §5).
// It is the Go analogue of the source system's WorkChain class: the
// engine that drives do_step, owns the pending-awaitable list, and knows
// how to snapshot and restore itself.
type WorkChain struct {
	*Process

	outline *Outline
	stepper *Stepper
	ctx     *Context

	runner Runner
	store  NodeStore
	cfg    *chainConfig

	mu      sync.Mutex
	pending []*Awaitable

	done    chan struct{}
	doneErr error
	runCtx  context.Context
}

// NewWorkChain constructs a chain ready to Run, positioned at the first
// atomic step of outline.
func NewWorkChain(pk string, outline *Outline, runner Runner, store NodeStore, opts ...ChainOption) *WorkChain {
	cfg := defaultChainConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	wc := &WorkChain{
		Process: newProcess(pk, cfg.logger),
		outline: outline,
		ctx:     NewContext(),
		runner:  runner,
		store:   store,
		cfg:     cfg,
		done:    make(chan struct{}),
	}
	wc.stepper = outline.CreateStepper(wc)
	return wc
}

// Ctx returns the chain's Context, as consumed by StepFunc and
// PredicateFunc (spec.md §4.3).
func (c *WorkChain) Ctx() *Context { return c.ctx }

// Run drives the chain to a terminal state, blocking the caller until it
// is reached. Suspension on awaitables happens internally via the Runner;
// Run itself only returns once Finished, Excepted, or Killed (spec.md §6,
// mirrors launch.py's blocking run()).
func (c *WorkChain) Run(ctx context.Context) error {
	c.Start(ctx)
	select {
	case <-c.done:
		return c.doneErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start kicks off (or resumes, after restore) the stepping loop without
// blocking. It returns once the chain reaches Waiting or a terminal
// state; callers that need to block for completion should use Run or
// wait on a Runner-level completion hook.
func (c *WorkChain) Start(ctx context.Context) {
	c.runCtx = ctx
	c.transition(StateRunning)
	c.runLoop(ctx)
}

// runLoop repeatedly calls DoStep while the chain remains Running. It
// exits the moment the chain suspends (Waiting) or terminates.
func (c *WorkChain) runLoop(ctx context.Context) {
	for c.State() == StateRunning {
		outcome, err := c.DoStep(ctx)
		if err != nil {
			c.finishWithError(err)
			return
		}
		switch {
		case outcome.Waiting:
			c.setStatus(c.waitingStatus())
			c.cfg.emitter.Emit(emit.Event{PK: c.PK(), Msg: "suspend"})
			return
		case outcome.Terminal:
			c.cfg.emitter.Emit(emit.Event{PK: c.PK(), Msg: "finish", Meta: map[string]interface{}{"state": c.State().String()}})
			return
		}
	}
}

// StepOutcome reports what a single DoStep call resulted in: the chain
// keeps Running (neither field set), suspends awaiting external results
// (Waiting), or reaches a terminal state (Terminal) — the tagged-variant
// return spec.md §9 asks for, rather than a Wait/Continue/Terminal sum
// type, since Go has no sealed enums worth the ceremony here.
type StepOutcome struct {
	Waiting  bool
	Terminal bool
}

// DoStep executes exactly one atomic step (or evaluates one
// predicate-only hop) and updates chain state accordingly: binding any
// ToContext payload, registering new awaitables, and detecting
// completion or propagated returns (spec.md §4.4, grounded on
// workchain.py's _do_step).
func (c *WorkChain) DoStep(ctx context.Context) (StepOutcome, error) {
	span := c.startSpan(ctx, "DoStep")
	defer span.end()

	finished, result, err := c.stepper.Step()
	if err != nil {
		if pr, ok := err.(*PropagateReturn); ok {
			c.storeNodes(ctx)
			code := ExitCode{}
			if pr.Code != nil {
				code = *pr.Code
			}
			c.setFinished(&code)
			return StepOutcome{Terminal: true}, nil
		}
		return StepOutcome{}, err
	}

	if err := c.applyResult(result); err != nil {
		return StepOutcome{}, err
	}
	if c.State().Terminal() {
		return StepOutcome{Terminal: true}, nil
	}

	c.mu.Lock()
	pendingCount := len(c.pending)
	c.mu.Unlock()
	c.cfg.metrics.PendingAwaitables(c.PK(), pendingCount)

	if pendingCount > 0 {
		c.transition(StateWaiting)
		c.registerCallbacks()
		return StepOutcome{Waiting: true}, nil
	}

	if finished {
		c.storeNodes(ctx)
		c.setFinished(nil)
		return StepOutcome{Terminal: true}, nil
	}

	return StepOutcome{}, nil
}

// applyResult handles a StepFunc's return value: a ToContext payload
// binds each entry, coercing Reference values into pending Awaitables; an
// Exit result with non-zero status finishes the chain immediately, while a
// zero-status Exit is treated like nil; nil does nothing (spec.md §4.2,
// §4.4).
func (c *WorkChain) applyResult(result StepResult) error {
	switch r := result.(type) {
	case nil:
		return nil
	case ToContext:
		for key, value := range r {
			if err := c.bindToContext(key, value); err != nil {
				return err
			}
		}
		return nil
	case exitResult:
		if r.code.Status == 0 {
			return nil
		}
		c.storeNodes(c.runCtx)
		code := r.code
		c.setFinished(&code)
		return nil
	default:
		return newChainError("INVALID_STEP_RESULT", fmt.Sprintf("unrecognized step result %T", result), ErrInvalidOperation)
	}
}

// bindToContext implements a single to_context(key: value) call. A
// Reference value is coerced into an Awaitable and registered as pending;
// any other value is assigned (or appended) directly with no suspension
// required (spec.md §4.2, §4.3).
func (c *WorkChain) bindToContext(key string, value interface{}) error {
	ref, isRef := value.(Reference)
	if !isRef {
		c.ctx.Set(key, value)
		return nil
	}
	aw := ConstructAwaitable(ref)
	aw.Key = key
	c.InsertAwaitable(aw)
	return nil
}

// InsertAwaitable registers aw as pending and writes its placeholder into
// Context at aw.Key, per aw.Action (spec.md §4.3). The same *Awaitable
// value is shared between the pending list and the Context slot it
// occupies, preserving the placeholder bijection invariant.
func (c *WorkChain) InsertAwaitable(aw *Awaitable) {
	switch aw.Action {
	case ActionAppend:
		aw.index = c.ctx.AppendPlaceholder(aw.Key, aw)
	default:
		c.ctx.Set(aw.Key, aw)
	}
	c.mu.Lock()
	c.pending = append(c.pending, aw)
	c.mu.Unlock()
}

// ResolveAwaitable is invoked by the Runner once pk's target process
// reaches a terminal state. It looks up every pending awaitable bound to
// pk, resolves each against the loaded Node, and — once none remain
// pending — resumes the chain via CallSoon (spec.md §4.3, §6).
func (c *WorkChain) ResolveAwaitable(pk string) error {
	node, err := c.loadNode(pk)
	if err != nil {
		return err
	}

	c.mu.Lock()
	var remaining []*Awaitable
	var matched []*Awaitable
	for _, aw := range c.pending {
		if aw.PK == pk {
			matched = append(matched, aw)
		} else {
			remaining = append(remaining, aw)
		}
	}
	c.pending = remaining
	stillPending := len(c.pending)
	c.mu.Unlock()

	if len(matched) == 0 {
		return fmt.Errorf("%w: pk %q has no pending awaitable", ErrUnresolvableTarget, pk)
	}

	for _, aw := range matched {
		c.resolveOne(aw, node)
	}
	c.cfg.emitter.Emit(emit.Event{PK: c.PK(), Msg: "resolve", Meta: map[string]interface{}{"target_pk": pk}})

	c.cfg.metrics.CallbackFired(c.PK())
	c.cfg.metrics.PendingAwaitables(c.PK(), stillPending)

	if stillPending == 0 && c.State() == StateWaiting {
		c.runner.CallSoon(func() {
			c.transition(StateRunning)
			c.runLoop(c.runCtx)
		})
	}
	return nil
}

// resolveOne binds node's value (or its outgoing-link mapping, if
// aw.Outputs) into the Context slot aw occupies, in place, then marks aw
// resolved.
func (c *WorkChain) resolveOne(aw *Awaitable, node Node) {
	var value interface{} = node
	if aw.Outputs {
		value = node.Outgoing()
	}
	switch aw.Action {
	case ActionAppend:
		c.ctx.SetAt(aw.Key, aw.index, value)
	default:
		c.ctx.Set(aw.Key, value)
	}
	aw.Resolved = true
}

func (c *WorkChain) loadNode(pk string) (Node, error) {
	if c.store == nil {
		return nil, fmt.Errorf("%w: no NodeStore configured", ErrUnresolvableTarget)
	}
	node, err := c.store.Load(pk)
	if err != nil {
		return nil, fmt.Errorf("%w: pk %q: %w", ErrUnresolvableTarget, pk, err)
	}
	return node, nil
}

// registerCallbacks asks the Runner to notify this chain once each
// currently pending awaitable's target finishes. Called once per
// Running->Waiting transition; awaitables inserted after that transition
// (there are none, since insertion only happens mid-step) are not
// double-registered.
func (c *WorkChain) registerCallbacks() {
	c.mu.Lock()
	pks := make([]string, 0, len(c.pending))
	seen := make(map[string]bool, len(c.pending))
	for _, aw := range c.pending {
		if !seen[aw.PK] {
			seen[aw.PK] = true
			pks = append(pks, aw.PK)
		}
	}
	c.mu.Unlock()

	for _, pk := range pks {
		pk := pk
		c.runner.CallOnProcessFinish(pk, func() {
			if err := c.ResolveAwaitable(pk); err != nil {
				c.Logger().Error("resolve awaitable failed", "pk", pk, "err", err)
				c.finishWithError(err)
			}
		})
	}
}

// storeNodes calls Store on every Node held in Context: a Node bound
// directly at a key, a Node inside a []interface{} (walked recursively),
// and each Node of a map[string]Node (an Outputs binding). Nodes inside
// any other container type are not visited. Errors are logged and storage continues rather than aborting
// the chain: a node that fails to store here will simply fail again, more
// loudly, the next time something tries to load it by pk (spec.md §9
// open question: store-on-exit failures degrade to a later load error
// rather than excepting the chain in place).
func (c *WorkChain) storeNodes(ctx context.Context) {
	_ = ctx
	for _, key := range c.ctx.Keys() {
		value, ok := c.ctx.Get(key)
		if !ok {
			continue
		}
		c.storeValue(value)
	}
}

func (c *WorkChain) storeValue(value interface{}) {
	switch v := value.(type) {
	case Node:
		if err := v.Store(); err != nil {
			c.Logger().Error("store node failed", "pk", v.PK(), "err", err)
		}
	case []interface{}:
		for _, elem := range v {
			c.storeValue(elem)
		}
	case map[string]Node:
		for _, n := range v {
			if err := n.Store(); err != nil {
				c.Logger().Error("store node failed", "pk", n.PK(), "err", err)
			}
		}
	}
}

func (c *WorkChain) finishWithError(err error) {
	c.storeNodes(c.runCtx)
	c.setExcepted(err)
	c.closeDone(err)
}

func (c *WorkChain) setFinished(code *ExitCode) {
	c.Process.setFinished(code)
	c.closeDone(nil)
}

func (c *WorkChain) closeDone(err error) {
	select {
	case <-c.done:
		return
	default:
	}
	c.doneErr = err
	close(c.done)
}

func (c *WorkChain) waitingStatus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("waiting on %d pending awaitable(s)", len(c.pending))
}

type span struct {
	end func()
}

func (c *WorkChain) startSpan(ctx context.Context, name string) span {
	_, sp := c.cfg.tracer.Start(ctx, name)
	sp.SetAttributes(attribute.String("workchain.pk", c.PK()))
	return span{end: sp.End}
}
