package rpcclient

import "fmt"

// Error is the RpcError kind: any failure to reach or get a sane
// answer from the configured Bitcoin Core node. It is fatal to the
// whole pipeline — it is never something a single block can be
// skipped over.
type Error struct {
	Method string
	Cause  error
}

// NewError wraps cause as the RpcError kind for the given method call.
func NewError(method string, cause error) *Error {
	return &Error{Method: method, Cause: cause}
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc: %s: %s", e.Method, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }
