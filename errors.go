package fontctx

import "errors"

// Sentinel errors for fontctx.
var (
	// ErrUnavailable is matched by errors returned when a backend cannot
	// reach or initialize the native font service.
	ErrUnavailable = errors.New("fontctx: font service unavailable")

	// ErrReleased is returned when a released Handle is used.
	ErrReleased = errors.New("fontctx: handle released")

	// ErrNotSupported is returned when the backend lacks a capability.
	ErrNotSupported = errors.New("fontctx: not supported by backend")

	// ErrUnknownFamily is returned when a font family is not known to the backend.
	ErrUnknownFamily = errors.New("fontctx: unknown font family")
)

// UnavailableError is returned by New when a backend fails to open.
// It matches ErrUnavailable with errors.Is.
type UnavailableError struct {
	Backend string
	Err     error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return "fontctx: " + e.Backend + ": font service unavailable"
	}
	return "fontctx: " + e.Backend + ": font service unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is reports whether target is ErrUnavailable.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// unavailable wraps err for backend unless it already is an UnavailableError.
func unavailable(backend string, err error) error {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return err
	}
	return &UnavailableError{Backend: backend, Err: err}
}
