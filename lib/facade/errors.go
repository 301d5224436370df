package facade

import "fmt"

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

// RetCode classifies façade failures so callers can decide whether an
// operation is worth retrying without parsing message strings.
type RetCode uint64

const (
	RetCSuccess            RetCode = iota // 0: Operation executed successfully.
	RetCNotFound                          // 1: Typed miss - the requested record does not exist. Not retryable.
	RetCBackendUnavailable                // 2: Connectivity or protocol failure. Retryable.
	RetCSerialization                     // 3: Stored payload cannot be decoded. Not retryable.
	RetCValidation                        // 4: Malformed caller-supplied query. Not retryable.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCNotFound:
		return "NotFound"
	case RetCBackendUnavailable:
		return "BackendUnavailable"
	case RetCSerialization:
		return "SerializationError"
	case RetCValidation:
		return "ValidationError"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is the typed error carried in the failure arm of a Result. It wraps
// a return code and a human-readable message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StorageError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}
