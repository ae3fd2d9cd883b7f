package dukpt

import "errors"

// Errors returned by the derivation entry points.
var (
	ErrInvalidKeyLength = errors.New("invalid key length: BDK must be 128 bits")
	ErrInvalidKsnLength = errors.New("invalid KSN length: at least 80 bits required")
	ErrCipherFailure    = errors.New("block cipher failure")
	ErrUnknownKeyUsage  = errors.New("unknown key usage")
)
