package agent

import "errors"

// ErrProductionNotReady is the internal sentinel a production branch returns
// when a required integration key is missing at call time. The runtime
// wrapper downgrades the run to demo and logs it; the sentinel never reaches
// callers.
var ErrProductionNotReady = errors.New("production integration not ready")

// PermanentError marks a production failure that must not be retried on the
// demo branch (e.g. the input itself is unprocessable). Plain errors from the
// production branch are treated as transient and trigger the demo fallback.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so the runtime surfaces it instead of falling back.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}
