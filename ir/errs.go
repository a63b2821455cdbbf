package ir

import "errors"

var (
	ErrInvalidPath     = errors.New("invalid path")
	ErrNotFound        = errors.New("not found")
	ErrNameConflict    = errors.New("name conflict")
	ErrTypeDeduction   = errors.New("cannot deduce node type")
	ErrCyclicReference = errors.New("cyclic reference")
	ErrMetadataDecode  = errors.New("cannot decode metadata")
)
