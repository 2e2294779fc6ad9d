package essence

import "errors"

var (
	ErrAlreadyOwned       = errors.New("essence: already owned")
	ErrNotOwned           = errors.New("essence: not owned")
	ErrInvalidName        = errors.New("essence: invalid name")
	ErrNegativeSize       = errors.New("essence: negative allocation size")
	ErrAllocationTooLarge = errors.New("essence: allocation exceeds memory limit")
	ErrOutOfBounds        = errors.New("essence: memory access out of bounds")
	ErrMalformedMacro     = errors.New("essence: malformed macro")
	ErrLineTooLong        = errors.New("essence: line too long")
)
