//////////////////////////////////////////////////////////////////////////////
//
// Sample source errors
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package multisource

import "github.com/pkg/errors"

var (
	// ErrIllegalState is returned when an operation is invoked in a state
	// that does not permit it. This always indicates a caller bug.
	ErrIllegalState = errors.New("multisource: illegal state")

	// ErrIndexOutOfRange is returned when a track group index does not
	// refer to any group of the source.
	ErrIndexOutOfRange = errors.New("multisource: track group index out of range")

	// ErrUnknownStream is returned when unselecting a stream that the source
	// did not produce, or that has already been unselected.
	ErrUnknownStream = errors.New("multisource: unknown track stream")

	// ErrNoSample is returned by TrackStream.ReadSample when no sample is
	// buffered yet. The caller should continue buffering and retry.
	ErrNoSample = errors.New("multisource: no sample available")
)

// illegalState wraps ErrIllegalState with the operation and current state.
func illegalState(op string, state State) error {
	return errors.Wrapf(ErrIllegalState, "%s in state %v", op, state)
}
