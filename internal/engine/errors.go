package engine

import "errors"

// Domain errors. Validation errors (ErrNoSelection, ErrInvalidOption)
// are recoverable and leave session state untouched; ErrAlreadySubmitted
// marks re-entrant triggers that callers are expected to absorb.
var (
	ErrInvalidTest      = errors.New("test has no questions")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrNoSelection      = errors.New("no option selected for the current question")
	ErrInvalidOption    = errors.New("option index out of range")
	ErrInvalidQuestion  = errors.New("question index out of range")
	ErrSectionLocked    = errors.New("section is not open for interaction")
	ErrNotSectional     = errors.New("test does not use sectional timing")
	ErrNoSections       = errors.New("test has no sections")
)
