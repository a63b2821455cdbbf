package strata

import "errors"

var (
	ErrAllowNewViolation    = errors.New("new entry not allowed")
	ErrNoPreviousValue      = errors.New("no previous value")
	ErrMissingRequiredValue = errors.New("missing required value")
	ErrUnresolvedNode       = errors.New("unresolved node")
)
