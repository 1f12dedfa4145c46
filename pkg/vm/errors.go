// Package vm - error handling with stack traces
package vm

import (
	"fmt"
	"strings"
)

// StackFrame captures one call frame's position at the moment a runtime
// error was raised. RuntimeError.StackTrace holds them outermost frame
// first, in call order.
type StackFrame struct {
	Name       string // function/method name, or "script"
	SourceLine int    // source line of the call-site IP
}

// RuntimeError is a runtime error paired with the call stack active when
// it was raised, formatted as the message followed by one "[line N] in
// NAME" line per frame, outermost last.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for i := len(e.StackTrace) - 1; i >= 0; i-- {
		frame := e.StackTrace[i]
		name := frame.Name
		if name == "" {
			name = "script"
		} else {
			name += "()"
		}
		fmt.Fprintf(&b, "\n[line %d] in %s", frame.SourceLine, name)
	}
	return b.String()
}

func newRuntimeError(message string, stack []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: stack}
}
