package tools

import "fmt"

// ResolutionError reports a tool call whose function name could not be
// mapped onto a registered capability method. The message text is shown to
// the model verbatim, so it stays stable.
type ResolutionError struct{ msg string }

func (e *ResolutionError) Error() string { return e.msg }

func errInvalidFormat(name string) error {
	return &ResolutionError{msg: fmt.Sprintf("Invalid function name format: %s", name)}
}

func errToolNotFound(capability string) error {
	return &ResolutionError{msg: fmt.Sprintf("Tool not found: %s", capability)}
}

func errMethodNotFound(capability, method string) error {
	return &ResolutionError{msg: fmt.Sprintf("Method not found: %s.%s", capability, method)}
}

// SerializationError reports tool arguments or results that could not be
// decoded from or encoded to JSON.
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *SerializationError) Unwrap() error { return e.Err }

// ValidationError reports a capability spec rejected while building the
// catalog.
type ValidationError struct {
	Capability string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid capability %q: %s", e.Capability, e.Reason)
}
