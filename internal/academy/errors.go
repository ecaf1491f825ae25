package academy

import "errors"

// Precondition failures. They signal a caller driving a transition with an
// argument outside the closed set of valid controls; nothing is clamped.
var (
	ErrUnknownModule     = errors.New("unknown module")
	ErrUnknownTab        = errors.New("unknown tab")
	ErrOptionOutOfRange  = errors.New("option index out of range")
	ErrModuleUnavailable = errors.New("module is not available yet")
	ErrNoActiveModule    = errors.New("no module is open")
	ErrQuizNotShown      = errors.New("quiz is not shown")
)
