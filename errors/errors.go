package errors

import (
	"errors"
	"fmt"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// ErrNotAMember is returned when an actor tries to act on a
	// conversation they do not belong to.
	ErrNotAMember = fmt.Errorf("not a member of the conversation")

	// ErrMembershipUnavailable is returned when the durable store is
	// unreachable and no cached membership snapshot exists.
	ErrMembershipUnavailable = fmt.Errorf("membership unavailable")

	// ErrPersistenceFailure is returned when the durable append or
	// read-cursor update failed. The event has not been fanned out.
	ErrPersistenceFailure = fmt.Errorf("persistence failure")

	// ErrDuplicateBinding is returned when a connection is registered
	// twice. This is a protocol error, not a runtime condition.
	ErrDuplicateBinding = fmt.Errorf("connection already bound")

	ErrUnknownEventKind = fmt.Errorf("unknown event kind")
	ErrInvalidToken     = fmt.Errorf("invalid token")
)

// Wire error codes sent back to the originating connection.
// Dispatch-time failures to individual recipients are never surfaced here.
const (
	CodeNotAMember            = "not_a_member"
	CodeMembershipUnavailable = "membership_unavailable"
	CodePersistenceFailure    = "persistence_failure"
	CodeInvalidEvent          = "invalid_event"
	CodeInternal              = "internal"
)

// MapToWireCode translates a domain error into the code carried by an
// error frame on the client connection.
func MapToWireCode(err error) string {
	switch {
	case errors.Is(err, ErrNotAMember):
		return CodeNotAMember
	case errors.Is(err, ErrMembershipUnavailable):
		return CodeMembershipUnavailable
	case errors.Is(err, ErrPersistenceFailure):
		return CodePersistenceFailure
	case errors.Is(err, ErrUnknownEventKind):
		return CodeInvalidEvent
	default:
		return CodeInternal
	}
}
