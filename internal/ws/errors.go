package ws

import "fmt"

// ValidationError reports a malformed send. It is surfaced to the
// caller only; nothing is persisted or delivered.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid message: " + e.Reason
}

// PersistenceError reports a failed durable write. Delivery is never
// attempted after one: a message that is not stored is not sent.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store message: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
