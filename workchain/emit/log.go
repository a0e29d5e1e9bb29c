package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LogEmitter writes events as structured text or JSON lines.
type LogEmitter struct {
	writer   io.Writer
	jsonMode bool
}

// NewLogEmitter writes to writer (os.Stdout if nil) in JSON lines when
// jsonMode is true, or a terse text format otherwise.
func NewLogEmitter(writer io.Writer, jsonMode bool) *LogEmitter {
	if writer == nil {
		writer = os.Stdout
	}
	return &LogEmitter{writer: writer, jsonMode: jsonMode}
}

// Emit implements Emitter.
func (e *LogEmitter) Emit(event Event) {
	if e.jsonMode {
		enc, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintln(e.writer, string(enc))
		return
	}
	fmt.Fprintf(e.writer, "[%s] pk=%s step=%s\n", event.Msg, event.PK, event.Step)
}

// EmitBatch implements Emitter.
func (e *LogEmitter) EmitBatch(events []Event) {
	for _, ev := range events {
		e.Emit(ev)
	}
}

// Flush is a no-op: LogEmitter writes synchronously.
func (e *LogEmitter) Flush() error { return nil }
