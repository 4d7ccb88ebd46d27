package reservations

// ValidationError rejects a malformed or temporally invalid request.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// StateError rejects an operation not permitted in the reservation's current
// lifecycle state.
type StateError struct {
	msg string
}

func (e *StateError) Error() string {
	return e.msg
}

func stateError(msg string) error {
	return &StateError{msg: msg}
}

// AuthorizationError rejects a caller lacking the required role relationship
// to the reservation.
type AuthorizationError struct {
	msg string
}

func (e *AuthorizationError) Error() string {
	return e.msg
}

func authorizationError(msg string) error {
	return &AuthorizationError{msg: msg}
}
