// Package services defines the business logic for the follow graph, likes,
// direct-message rooms and their message logs, plus the post/comment CRUD
// around them. This file centralizes the service-level error values.
//
// Errors come in two layers. A small set of kinds (ErrInvalidOperation,
// ErrForbidden, ...) classifies failures; every concrete error wraps exactly
// one kind with %w, so handlers map to HTTP with errors.Is on the kind and
// only look at the concrete error when they want a more specific message.
package services

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	// ErrInvalidOperation marks a request that is well-formed but not allowed
	// for these arguments (following yourself, a room with yourself).
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrInvalidArgument marks malformed input (bad id, empty content).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrForbidden marks a caller that lacks access to the target.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks a missing target that the caller is allowed to know about.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a create that collides with state the caller does not own.
	ErrConflict = errors.New("conflict")

	// ErrUnavailable marks a transient storage failure; the request may be retried.
	ErrUnavailable = errors.New("temporarily unavailable")
)

// Concrete errors.
var (
	ErrSelfFollow     = fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	ErrSelfRoom       = fmt.Errorf("%w: cannot open a room with yourself", ErrInvalidOperation)
	ErrInvalidID      = fmt.Errorf("%w: id must be a UUID", ErrInvalidArgument)
	ErrEmptyContent   = fmt.Errorf("%w: content is empty", ErrInvalidArgument)
	ErrContentTooLong = fmt.Errorf("%w: content too long", ErrInvalidArgument)
	ErrInvalidEmail   = fmt.Errorf("%w: invalid email address", ErrInvalidArgument)
	ErrEmptyTitle     = fmt.Errorf("%w: title is empty", ErrInvalidArgument)

	// ErrRoomForbidden is returned both for rooms the caller is not a member
	// of and for rooms that do not exist, so room ids cannot be probed.
	ErrRoomForbidden = fmt.Errorf("%w: not a member of this room", ErrForbidden)
	ErrNotPostOwner  = fmt.Errorf("%w: not the author of this post", ErrForbidden)

	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)
	ErrPostNotFound = fmt.Errorf("%w: post", ErrNotFound)

	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)
	// ErrKeyClaimed means another request already stored a message under the
	// same Idempotency-Key.
	ErrKeyClaimed = fmt.Errorf("%w: idempotency key already used", ErrConflict)

	ErrRoomUnavailable = fmt.Errorf("%w: room could not be created", ErrUnavailable)
	ErrAppendFailed    = fmt.Errorf("%w: message could not be appended", ErrUnavailable)
)
