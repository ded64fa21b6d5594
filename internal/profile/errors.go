package profile

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrDuplicateListener = errors.New("listener already subscribed")
	ErrListenerBound     = errors.New("listener subscribed to another profile")
)

// precondition panics with err wrapped in a formatted message. Used for caller bugs
// (bad index, foreign descriptor) on the typed access path.
func precondition(err error, format string, args ...any) {
	panic(fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...)))
}
