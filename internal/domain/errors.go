package domain

import "errors"

// Sentinel errors for mapping to outbound error events and HTTP codes
// in the adapters.
var (
	// ErrUnauthorized: no or invalid identity on the connection.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden: valid identity, insufficient room membership/ownership.
	ErrForbidden = errors.New("forbidden")
	// ErrUnknownSession: referenced session is not tracked.
	ErrUnknownSession = errors.New("unknown session")
	// ErrUnknownRoom: referenced room is not tracked.
	ErrUnknownRoom = errors.New("unknown room")
	// ErrValidation: malformed or incomplete payload.
	ErrValidation = errors.New("invalid payload")
	// ErrDuplicateSession: registry collision, fatal for that connection.
	ErrDuplicateSession = errors.New("duplicate session")
	// ErrDependency: a persistence/collaborator call failed.
	ErrDependency = errors.New("dependency failure")
)
