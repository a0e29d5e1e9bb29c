package emit

// NullEmitter discards every event. Useful as a default when no
// observability sink is configured.
type NullEmitter struct{}

// NewNullEmitter returns a NullEmitter.
func NewNullEmitter() *NullEmitter { return &NullEmitter{} }

// Emit implements Emitter.
func (n *NullEmitter) Emit(Event) {}

// EmitBatch implements Emitter.
func (n *NullEmitter) EmitBatch([]Event) {}

// Flush implements Emitter.
func (n *NullEmitter) Flush() error { return nil }
