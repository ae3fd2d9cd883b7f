// Package errorcodes defines host error codes using a structured type.
// HSMError holds the two-character code and human-readable description.
package errorcodes

import "errors"

// Predefined host error instances.
var (
	Err00 = HSMError{"00", "No error"}
	Err01 = HSMError{"01", "Verification failure"}
	Err10 = HSMError{"10", "Source key parity error"}
	Err15 = HSMError{
		"15",
		"Invalid input data (invalid format, invalid characters, or not enough data provided)",
	}
	Err21 = HSMError{"21", "Invalid key usage or mode"}
	Err27 = HSMError{"27", "Incompatible key length"}
	Err41 = HSMError{"41", "Internal hardware/software error"}
	Err42 = HSMError{"42", "DES failure"}
	Err68 = HSMError{"68", "Command has been disabled"}
	Err80 = HSMError{"80", "Data length error"}
)

// HSMError represents a host error with its code and description.
type HSMError struct {
	Code        string // two-character error code
	Description string // human-readable description
}

// Error implements the Go error interface: "<Code>: <Description>".
func (e HSMError) Error() string {
	return e.Code + ": " + e.Description
}

// CodeOnly returns only the error code (e.g., "68"), for embedding in responses.
func (e HSMError) CodeOnly() string {
	return e.Code
}

// CodeOf extracts the response code carried by err, falling back to 41.
func CodeOf(err error) string {
	if err == nil {
		return Err00.Code
	}

	var hsmErr HSMError
	if errors.As(err, &hsmErr) {
		return hsmErr.Code
	}

	return Err41.Code
}
