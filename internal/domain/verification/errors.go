package verification

import "errors"

// ErrPanic wraps a recovered panic raised while verifying one event.
var ErrPanic = errors.New("verification panicked")
