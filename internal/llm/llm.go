package llm

import "fmt"

// TransportError marks a completion request that failed at the transport
// level (network, HTTP status, exhausted retries). The agent stops the turn
// loop on it instead of feeding the failure back to the model.
type TransportError struct {
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("llm transport error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("llm transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
