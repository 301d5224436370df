package backend

import "errors"

var (
	// ErrClosed indicates that the backend has been closed and can no longer
	// serve requests.
	ErrClosed = errors.New("backend is closed")

	// ErrUnavailable indicates a connection or protocol failure while talking
	// to the backend. Callers may retry.
	ErrUnavailable = errors.New("backend unavailable")
)
