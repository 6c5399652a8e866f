//////////////////////////////////////////////////////////////////////////////
//
// SampleSource defines the contract between a playback engine and a provider
// of media samples
//
// Copyright 2019 Lanikai Labs. All rights reserved.
//
//////////////////////////////////////////////////////////////////////////////

package multisource

import "time"

/*
A SampleSource provides media samples for one or more track groups. It is
driven by a single caller, which polls Prepare until the source is ready, then
alternates between track selection and reading:

	for {
		ready, err := src.Prepare(0)
		if err != nil {
			// Handle I/O failure
		}
		if ready {
			break
		}
		// Wait and poll again
	}
	stream, _ := src.SelectTrack(multisource.NewTrackSelection(0, 0), 0)
	src.EndTrackSelection(0)
	for {
		src.ContinueBuffering(position)
		sample, err := stream.ReadSample()
		// ...
	}
	src.Release()

Implementations are not safe for concurrent use. Calls made in a state that
does not permit them return an error wrapping ErrIllegalState.
*/
type SampleSource interface {
	// State returns the current lifecycle state.
	State() State

	// Prepare the source for reading at the given position. Returns false if
	// the source is not ready yet, in which case the caller should retry
	// later. Only valid in StateUnprepared.
	Prepare(position time.Duration) (bool, error)

	// TrackGroups returns the groups exposed by a prepared source.
	TrackGroups() TrackGroupArray

	// StartTrackSelection is only valid in StateReading.
	StartTrackSelection() error

	// SelectTrack activates the tracks of selection and returns a stream for
	// reading them. Only valid in StateSelectingTracks.
	SelectTrack(selection TrackSelection, position time.Duration) (TrackStream, error)

	// UnselectTrack deactivates a stream returned by SelectTrack. Only valid
	// in StateSelectingTracks.
	UnselectTrack(stream TrackStream) error

	// EndTrackSelection is only valid in StateSelectingTracks.
	EndTrackSelection(position time.Duration) error

	// ContinueBuffering gives the source a chance to load media ahead of the
	// current playback position.
	ContinueBuffering(position time.Duration) error

	// SeekTo discards buffered media and resumes loading from position.
	SeekTo(position time.Duration) error

	// Duration of the media, or Unknown.
	Duration() Time

	// BufferedPosition returns how far the source has buffered, EndOfSource
	// if buffered to the end, or Unknown.
	BufferedPosition() Time

	// Release frees all resources. The source cannot be used afterwards.
	Release() error
}
