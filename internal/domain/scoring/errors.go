package scoring

import "errors"

// ErrInvalidCounts reports counts that cannot describe a real pick history.
var ErrInvalidCounts = errors.New("invalid pick counts")
